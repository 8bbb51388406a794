package proxy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/haihvite/printiful-bot/internal/config"
)

// ErrInsufficient 表示行情端可用代理数量不够本次批量，调用方必须整批放弃。
var ErrInsufficient = errors.New("proxy: 可用代理不足")

// Lease 是一条租出的代理：host:port 来自行情端，LocalPort 是分给本地
// 转发器的端口（浏览器 profile 用它做出口）。
type Lease struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Protocol  string `json:"protocol"`
	LocalPort int    `json:"localPort"`
}

func (l Lease) Addr() string {
	return l.Host + ":" + strconv.Itoa(l.Port)
}

type fetchResp struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Data    []string `json:"data"`
}

type Client struct {
	cfg    config.ProxyConfig
	client *resty.Client
	ports  *PortAllocator
}

func NewClient(cfg config.ProxyConfig, ports *PortAllocator) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout())
	return &Client{cfg: cfg, client: c, ports: ports}
}

// Fetch 一次性要 num 条代理。行情端给少了同样按不足处理，半批没有意义。
func (c *Client) Fetch(ctx context.Context, num int) ([]Lease, error) {
	if num <= 0 {
		return nil, nil
	}
	var resp fetchResp
	r, err := c.client.R().
		SetContext(ctx).
		// 行情端的 Content-Type 不可靠，按 JSON 硬解
		ForceContentType("application/json").
		SetQueryParam("num", strconv.Itoa(num)).
		SetQueryParam("country", c.cfg.Country).
		SetResult(&resp).
		Get("/api/proxy")
	if err != nil {
		return nil, fmt.Errorf("proxy fetch: %w", err)
	}
	if r.IsError() {
		return nil, fmt.Errorf("proxy fetch: http %d", r.StatusCode())
	}
	if len(resp.Data) < num {
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrInsufficient, resp.Error)
		}
		return nil, fmt.Errorf("%w: 需要 %d 实得 %d", ErrInsufficient, num, len(resp.Data))
	}

	leases := make([]Lease, 0, num)
	for _, raw := range resp.Data[:num] {
		lease, err := parseLease(raw, c.cfg.Protocol)
		if err != nil {
			return nil, err
		}
		lease.LocalPort, err = c.ports.Next()
		if err != nil {
			return nil, err
		}
		leases = append(leases, lease)
	}
	return leases, nil
}

func parseLease(raw, protocol string) (Lease, error) {
	host, portStr, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || host == "" {
		return Lease{}, fmt.Errorf("proxy: 无法解析代理地址 %q", raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Lease{}, fmt.Errorf("proxy: 无法解析代理地址 %q", raw)
	}
	if protocol == "" {
		protocol = "http"
	}
	return Lease{Host: host, Port: port, Protocol: protocol}, nil
}
