package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreecityDong/gandengyan/entities"
	"github.com/FreecityDong/gandengyan/repository"
	"github.com/FreecityDong/gandengyan/service"
)

func newTestServer() (*gin.Engine, *service.Registry) {
	gin.SetMode(gin.TestMode)
	registry := service.NewRegistry()
	ctl := NewRoomController(registry, repository.NewScoreLedger(nil))

	r := gin.New()
	r.GET("/health", ctl.Health)
	r.GET("/scores/recent", ctl.GetRecentScores)
	r.GET("/room/list", ctl.GetRoomList)
	return r, registry
}

func TestHealth(t *testing.T) {
	r, registry := newTestServer()
	registry.CreateRoom("conn1", "小明", entities.GameTypeGandengyan)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		OK    bool  `json:"ok"`
		Rooms int   `json:"rooms"`
		Ts    int64 `json:"ts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, 1, body.Rooms)
	assert.Positive(t, body.Ts)
}

func TestGetRoomList(t *testing.T) {
	r, registry := newTestServer()
	room, _ := registry.CreateRoom("conn1", "小明", entities.GameTypeSevens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/room/list", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			Rooms []struct {
				RoomID    string `json:"roomId"`
				GameLabel string `json:"gameLabel"`
			} `json:"rooms"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.StatusCode)
	require.Len(t, body.Data.Rooms, 1)
	assert.Equal(t, room.ID, body.Data.Rooms[0].RoomID)
	assert.Equal(t, "接龙", body.Data.Rooms[0].GameLabel)
}

func TestGetRecentScoresEmpty(t *testing.T) {
	r, _ := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scores/recent", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		OK    bool          `json:"ok"`
		Count int           `json:"count"`
		Items []interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Zero(t, body.Count)
}
