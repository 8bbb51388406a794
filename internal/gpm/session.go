package gpm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/haihvite/printiful-bot/internal/browser"
)

// Connector 把调试地址换成可用页面，返回的关闭函数只断开连接，
// 不负责停 profile。测试里换成假页面。
type Connector func(ctx context.Context, hostPort string) (browser.Page, func() error, error)

// RodConnector 通过 CDP 附到 GPM 拉起的浏览器上，复用它已开的第一个标签页。
func RodConnector(ctx context.Context, hostPort string) (browser.Page, func() error, error) {
	u, err := launcher.ResolveURL(hostPort)
	if err != nil {
		return nil, nil, fmt.Errorf("gpm: 解析调试地址 %s: %w", hostPort, err)
	}
	b := rod.New().Context(ctx).ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, nil, fmt.Errorf("gpm: 连接浏览器: %w", err)
	}
	pages, err := b.Pages()
	if err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	var page *rod.Page
	if len(pages) > 0 {
		page = pages.First()
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			_ = b.Close()
			return nil, nil, err
		}
	}
	return browser.Wrap(page), b.Close, nil
}

// Session 是一次任务占用的浏览器环境：profile + CDP 连接。
// Close 只会生效一次，重复调用不会把别人刚启的同名 profile 关掉。
type Session struct {
	api       ProfileAPI
	profileID string
	page      browser.Page
	closeConn func() error
	once      sync.Once
	settle    time.Duration
}

// Open 新建 profile 并启动。连上浏览器之前出任何错都会顺手停掉 profile。
func Open(ctx context.Context, api ProfileAPI, req CreateProfileRequest, settle time.Duration, connect Connector) (*Session, error) {
	profileID, err := api.CreateProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	return attach(ctx, api, profileID, settle, connect)
}

// OpenExisting 启动已有 profile（登录/充值/账单复用注册时的环境）。
func OpenExisting(ctx context.Context, api ProfileAPI, profileID string, settle time.Duration, connect Connector) (*Session, error) {
	return attach(ctx, api, profileID, settle, connect)
}

func attach(ctx context.Context, api ProfileAPI, profileID string, settle time.Duration, connect Connector) (*Session, error) {
	start, err := api.StartProfile(ctx, profileID)
	if err != nil {
		_ = api.StopProfile(context.WithoutCancel(ctx), profileID)
		return nil, err
	}
	// GPM 返回地址时浏览器往往还没把调试口监听起来，得缓一下
	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
			_ = api.StopProfile(context.WithoutCancel(ctx), profileID)
			return nil, ctx.Err()
		}
	}
	if connect == nil {
		connect = RodConnector
	}
	page, closeConn, err := connect(ctx, start.RemoteDebuggingAddress)
	if err != nil {
		_ = api.StopProfile(context.WithoutCancel(ctx), profileID)
		return nil, err
	}
	return &Session{
		api:       api,
		profileID: profileID,
		page:      page,
		closeConn: closeConn,
		settle:    settle,
	}, nil
}

func (s *Session) Page() browser.Page { return s.page }

func (s *Session) ProfileID() string { return s.profileID }

// Close 断开连接并停掉 profile，两步都尽力而为。只有第一次调用生效。
func (s *Session) Close(ctx context.Context) {
	s.once.Do(func() {
		if s.closeConn != nil {
			_ = s.closeConn()
		}
		if s.api != nil && s.profileID != "" {
			_ = s.api.StopProfile(context.WithoutCancel(ctx), s.profileID)
		}
	})
}

// OpenLocal 不走 GPM，直接在本机拉一个无头浏览器。调试流程用，
// 页面带 stealth 注入，省得本机指纹一眼被看穿。
func OpenLocal(ctx context.Context) (*Session, error) {
	u, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("gpm: 本地浏览器启动: %w", err)
	}
	b := rod.New().Context(ctx).ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("gpm: 本地浏览器连接: %w", err)
	}
	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return &Session{
		page:      browser.Wrap(page),
		closeConn: b.Close,
	}, nil
}
