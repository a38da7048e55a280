package service

import (
	"strings"
	"time"

	"golang.org/x/exp/rand"
)

// 去歧义的 32 符号字母表（无 0/O/1/I）
const idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))

// RandCode 生成 n 位房间码/玩家码
func RandCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rng.Intn(len(idAlphabet))]
	}
	return string(b)
}

// GeneratePlayerID 生成玩家ID（P + 8 位）
func GeneratePlayerID() string {
	return "P" + RandCode(8)
}

// NormalizeNickname 昵称归一化：去首尾空白并截断到 16 个字符
func NormalizeNickname(raw string) string {
	nickname := strings.TrimSpace(raw)
	runes := []rune(nickname)
	if len(runes) > 16 {
		return string(runes[:16])
	}
	return nickname
}
