package gpm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haihvite/printiful-bot/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GPMConfig{BaseURL: srv.URL, QPS: 1000, Burst: 1000})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateProfile(t *testing.T) {
	var gotReq CreateProfileRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/profiles/create" {
			t.Errorf("路径不对: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		writeJSON(w, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "prof-123"},
		})
	}))

	req := DefaultCreateRequest("a@x.com", "1.2.3.4:8080", "139.0.0.0")
	id, err := c.CreateProfile(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "prof-123" {
		t.Fatalf("想要 prof-123，实得 %s", id)
	}
	if gotReq.RawProxy != "1.2.3.4:8080" || gotReq.BrowserCore != "chromium" {
		t.Fatalf("请求体不对: %+v", gotReq)
	}
}

func TestCreateProfileNonSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "message": "quota exceeded"})
	}))

	_, err := c.CreateProfile(context.Background(), CreateProfileRequest{})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("想要带 message 的错误，实得 %v", err)
	}
}

func TestStartProfileReturnsDebugAddress(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v3/profiles/start/prof-1") {
			t.Errorf("路径不对: %s", r.URL.Path)
		}
		if r.URL.Query().Get("win_size") == "" {
			t.Error("缺少 win_size 参数")
		}
		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"profile_id":               "prof-1",
				"remote_debugging_address": "127.0.0.1:9222",
			},
		})
	}))

	res, err := c.StartProfile(context.Background(), "prof-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.RemoteDebuggingAddress != "127.0.0.1:9222" {
		t.Fatalf("调试地址不对: %s", res.RemoteDebuggingAddress)
	}
}

func TestStopProfileNonSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false})
	}))

	if err := c.StopProfile(context.Background(), "prof-1"); err == nil {
		t.Fatal("stop 失败应当返回错误（由调用方吞掉）")
	}
}
