package gpm

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/haihvite/printiful-bot/internal/config"
)

// ProfileAPI 是 GPM 本地接口的抽象，方便在测试里换成假实现。
type ProfileAPI interface {
	CreateProfile(ctx context.Context, req CreateProfileRequest) (string, error)
	StartProfile(ctx context.Context, profileID string) (StartResult, error)
	StopProfile(ctx context.Context, profileID string) error
}

type CreateProfileRequest struct {
	ProfileName string `json:"profile_name"`
	GroupName   string `json:"group_name"`
	BrowserCore string `json:"browser_core"`
	BrowserName string `json:"browser_name"`
	// 形如 "Windows 11"，GPM 据此生成指纹
	OS                     string `json:"os"`
	BrowserVersion         string `json:"browser_version,omitempty"`
	IsRandomBrowserVersion bool   `json:"is_random_browser_version"`
	RawProxy               string `json:"raw_proxy"`
	StartupURLs            string `json:"startup_urls"`
	IsMaskedFont           bool   `json:"is_masked_font"`
	IsNoiseCanvas          bool   `json:"is_noise_canvas"`
	IsNoiseWebGL           bool   `json:"is_noise_webgl"`
	IsNoiseClientRect      bool   `json:"is_noise_client_rect"`
	IsNoiseAudioContext    bool   `json:"is_noise_audio_context"`
	IsRandomOS             bool   `json:"is_random_os"`
	WebRTCMode             int    `json:"webrtc_mode"`
	UserAgent              string `json:"user_agent"`
}

// DefaultCreateRequest 填上注册流程用的指纹开关，只差 profile 名和代理。
func DefaultCreateRequest(name, rawProxy, browserVersion string) CreateProfileRequest {
	return CreateProfileRequest{
		ProfileName:         name,
		GroupName:           "All",
		BrowserCore:         "chromium",
		BrowserName:         "Chrome",
		OS:                  "Windows 11",
		BrowserVersion:      browserVersion,
		RawProxy:            rawProxy,
		IsMaskedFont:        true,
		IsNoiseAudioContext: true,
		WebRTCMode:          2,
		UserAgent:           "auto",
	}
}

type StartResult struct {
	ProfileID string
	// host:port，rod 拿它换 ws 调试地址
	RemoteDebuggingAddress string
	BrowserLocation        string
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type createData struct {
	ID string `json:"id"`
}

type startData struct {
	ProfileID              string `json:"profile_id"`
	RemoteDebuggingAddress string `json:"remote_debugging_address"`
	BrowserLocation        string `json:"browser_location"`
}

type Client struct {
	cfg     config.GPMConfig
	client  *resty.Client
	limiter *rate.Limiter
}

func NewClient(cfg config.GPMConfig) *Client {
	qps := cfg.QPS
	if qps <= 0 {
		qps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 2
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout()).
		SetRetryCount(cfg.RetryCount)
	return &Client{
		cfg:     cfg,
		client:  c,
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
	}
}

func (c *Client) CreateProfile(ctx context.Context, req CreateProfileRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	var resp envelope[createData]
	r, err := c.client.R().
		SetContext(ctx).
		// GPM 本地接口不总是带 Content-Type，按 JSON 硬解
		ForceContentType("application/json").
		SetBody(req).
		SetResult(&resp).
		Post("/api/v3/profiles/create")
	if err != nil {
		return "", fmt.Errorf("gpm create profile: %w", err)
	}
	if r.IsError() {
		return "", fmt.Errorf("gpm create profile: http %d", r.StatusCode())
	}
	if !resp.Success || resp.Data.ID == "" {
		if resp.Message == "" {
			resp.Message = "create failed"
		}
		return "", errors.New("gpm create profile: " + resp.Message)
	}
	return resp.Data.ID, nil
}

func (c *Client) StartProfile(ctx context.Context, profileID string) (StartResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return StartResult{}, err
	}
	var resp envelope[startData]
	r, err := c.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetQueryParam("win_size", fmt.Sprintf("%d,%d", c.cfg.WinWidth, c.cfg.WinHeight)).
		SetQueryParam("win_pos", strconv.Itoa(c.cfg.WinX)+","+strconv.Itoa(c.cfg.WinY)).
		SetResult(&resp).
		Get("/api/v3/profiles/start/" + profileID)
	if err != nil {
		return StartResult{}, fmt.Errorf("gpm start profile %s: %w", profileID, err)
	}
	if r.IsError() {
		return StartResult{}, fmt.Errorf("gpm start profile %s: http %d", profileID, r.StatusCode())
	}
	if !resp.Success || resp.Data.RemoteDebuggingAddress == "" {
		if resp.Message == "" {
			resp.Message = "start failed"
		}
		return StartResult{}, fmt.Errorf("gpm start profile %s: %s", profileID, resp.Message)
	}
	return StartResult{
		ProfileID:              profileID,
		RemoteDebuggingAddress: resp.Data.RemoteDebuggingAddress,
		BrowserLocation:        resp.Data.BrowserLocation,
	}, nil
}

// StopProfile 尽力而为：关不掉也只是浏览器多活一会，不值得让任务失败。
func (c *Client) StopProfile(ctx context.Context, profileID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var resp envelope[any]
	r, err := c.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&resp).
		Get("/api/v3/profiles/stop/" + profileID)
	if err != nil {
		return fmt.Errorf("gpm stop profile %s: %w", profileID, err)
	}
	if r.IsError() {
		return fmt.Errorf("gpm stop profile %s: http %d", profileID, r.StatusCode())
	}
	if !resp.Success {
		if resp.Message == "" {
			resp.Message = "stop failed"
		}
		return fmt.Errorf("gpm stop profile %s: %s", profileID, resp.Message)
	}
	return nil
}
