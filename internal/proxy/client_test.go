package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/haihvite/printiful-bot/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ports, err := NewPortAllocator(filepath.Join(t.TempDir(), "ports"), 40000)
	if err != nil {
		t.Fatalf("port allocator: %v", err)
	}
	return NewClient(config.ProxyConfig{BaseURL: srv.URL, Country: "US"}, ports)
}

func proxyHandler(data []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}
}

func TestFetchParsesLeases(t *testing.T) {
	c := newTestClient(t, proxyHandler([]string{"1.2.3.4:8080", "5.6.7.8:9090"}))

	leases, err := c.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(leases) != 2 {
		t.Fatalf("想要 2 条，实得 %d", len(leases))
	}
	if leases[0].Host != "1.2.3.4" || leases[0].Port != 8080 {
		t.Fatalf("解析错了: %+v", leases[0])
	}
	if leases[0].Addr() != "1.2.3.4:8080" {
		t.Fatalf("Addr 拼装错了: %s", leases[0].Addr())
	}
	// 本地端口单调递增且不重复
	if leases[0].LocalPort == leases[1].LocalPort {
		t.Fatalf("本地端口撞了: %d", leases[0].LocalPort)
	}
}

func TestFetchInsufficientIsTyped(t *testing.T) {
	c := newTestClient(t, proxyHandler([]string{"1.2.3.4:8080"}))

	_, err := c.Fetch(context.Background(), 3)
	if !errors.Is(err, ErrInsufficient) {
		t.Fatalf("想要 ErrInsufficient，实得 %v", err)
	}
}

func TestFetchBadEntryFails(t *testing.T) {
	c := newTestClient(t, proxyHandler([]string{"not-a-proxy"}))

	if _, err := c.Fetch(context.Background(), 1); err == nil {
		t.Fatal("坏地址应当报错")
	}
}

func TestPortAllocatorPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports")
	a, err := NewPortAllocator(path, 40000)
	if err != nil {
		t.Fatalf("allocator: %v", err)
	}
	first, _ := a.Next()
	second, _ := a.Next()
	if second != first+1 {
		t.Fatalf("不是单调递增: %d, %d", first, second)
	}

	// 重启后从落盘的计数继续
	b, err := NewPortAllocator(path, 40000)
	if err != nil {
		t.Fatalf("重开 allocator: %v", err)
	}
	third, _ := b.Next()
	if third != second+1 {
		t.Fatalf("重启后回退了: %d -> %d", second, third)
	}
}

func TestPoolReusesReleasedLeases(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		proxyHandler([]string{"1.2.3.4:8080", "5.6.7.8:9090"})(w, r)
	})
	pool := NewPool(c)
	ctx := context.Background()

	leases, err := pool.Acquire(ctx, 2)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Release(leases...)

	// 池里有两条，再要两条不该碰行情端
	if _, err := pool.Acquire(ctx, 2); err != nil {
		t.Fatalf("二次 acquire: %v", err)
	}
	if calls != 1 {
		t.Fatalf("应当只请求一次行情端，实请求 %d 次", calls)
	}
}

func TestPoolInsufficientReturnsReusedLeases(t *testing.T) {
	c := newTestClient(t, proxyHandler([]string{"1.2.3.4:8080"}))
	pool := NewPool(c)
	ctx := context.Background()

	leases, err := pool.Acquire(ctx, 1)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Release(leases...)

	// 要 3 条：池里 1 条 + 行情端只给 1 条 → 整体失败，池里那条要回去
	if _, err := pool.Acquire(ctx, 3); !errors.Is(err, ErrInsufficient) {
		t.Fatalf("想要 ErrInsufficient，实得 %v", err)
	}
	if pool.FreeCount() != 1 {
		t.Fatalf("失败后池子应该还有 1 条，实得 %d", pool.FreeCount())
	}
}
