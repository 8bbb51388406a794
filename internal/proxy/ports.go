package proxy

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// PortAllocator 发放本地转发端口。计数器落盘，重启后继续递增，
// 避免把还在用的端口再发一遍。
type PortAllocator struct {
	mu   sync.Mutex
	path string
	next int
	base int
}

func NewPortAllocator(path string, base int) (*PortAllocator, error) {
	if base <= 0 {
		base = 40000
	}
	a := &PortAllocator{path: path, base: base, next: base}
	if b, err := os.ReadFile(path); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(string(b))); err == nil && v >= base {
			a.next = v
		}
	}
	return a, nil
}

func (a *PortAllocator) Next() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next > 65000 {
		// 端口段用完就从头再来，一轮两万多个端口早空出来了
		a.next = a.base
	}
	port := a.next
	a.next++
	if err := a.persist(); err != nil {
		return 0, err
	}
	return port, nil
}

func (a *PortAllocator) persist() error {
	if a.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("proxy: 端口计数器目录: %w", err)
	}
	return os.WriteFile(a.path, []byte(strconv.Itoa(a.next)), 0o644)
}
