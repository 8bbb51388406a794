package gpm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haihvite/printiful-bot/internal/browser"
)

type fakeAPI struct {
	createErr  error
	startErr   error
	created    int
	started    int
	stopped    int
	stoppedIDs []string
}

func (f *fakeAPI) CreateProfile(_ context.Context, _ CreateProfileRequest) (string, error) {
	f.created++
	if f.createErr != nil {
		return "", f.createErr
	}
	return "prof-1", nil
}

func (f *fakeAPI) StartProfile(_ context.Context, profileID string) (StartResult, error) {
	f.started++
	if f.startErr != nil {
		return StartResult{}, f.startErr
	}
	return StartResult{ProfileID: profileID, RemoteDebuggingAddress: "127.0.0.1:9222"}, nil
}

func (f *fakeAPI) StopProfile(_ context.Context, profileID string) error {
	f.stopped++
	f.stoppedIDs = append(f.stoppedIDs, profileID)
	return nil
}

type stubPage struct{}

func (stubPage) URL() string                                  { return "" }
func (stubPage) Navigate(string) error                        { return nil }
func (stubPage) WaitDOMReady(time.Duration) error             { return nil }
func (stubPage) Has(string) bool                              { return false }
func (stubPage) Visible(string) bool                          { return false }
func (stubPage) Count(string) int                             { return 0 }
func (stubPage) Text(string) (string, error)                  { return "", nil }
func (stubPage) WaitVisible(string, time.Duration) error      { return nil }
func (stubPage) WaitDetached(string, time.Duration) error     { return nil }
func (stubPage) Click(string, time.Duration) error            { return nil }
func (stubPage) ClickNth(string, int, time.Duration) error    { return nil }
func (stubPage) Input(string, string, time.Duration) error    { return nil }
func (stubPage) Press(string) error                           { return nil }

func stubConnector(connects *int, closes *int) Connector {
	return func(_ context.Context, _ string) (browser.Page, func() error, error) {
		*connects++
		return stubPage{}, func() error {
			*closes++
			return nil
		}, nil
	}
}

func TestSessionCloseExactlyOnce(t *testing.T) {
	api := &fakeAPI{}
	var connects, closes int
	sess, err := Open(context.Background(), api, CreateProfileRequest{}, 0, stubConnector(&connects, &closes))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if connects != 1 {
		t.Fatalf("应当连一次，实连 %d 次", connects)
	}

	sess.Close(context.Background())
	sess.Close(context.Background())
	sess.Close(context.Background())

	if closes != 1 {
		t.Fatalf("连接应当只关一次，实关 %d 次", closes)
	}
	if api.stopped != 1 {
		t.Fatalf("profile 应当只停一次，实停 %d 次", api.stopped)
	}
	if api.stoppedIDs[0] != "prof-1" {
		t.Fatalf("停错了 profile: %s", api.stoppedIDs[0])
	}
}

func TestOpenStopsProfileWhenConnectFails(t *testing.T) {
	api := &fakeAPI{}
	connect := func(_ context.Context, _ string) (browser.Page, func() error, error) {
		return nil, nil, errors.New("cdp refused")
	}
	if _, err := Open(context.Background(), api, CreateProfileRequest{}, 0, connect); err == nil {
		t.Fatal("连接失败应当向上报错")
	}
	if api.stopped != 1 {
		t.Fatalf("连接失败后应当停掉刚建的 profile，实停 %d 次", api.stopped)
	}
}

func TestOpenExistingSkipsCreate(t *testing.T) {
	api := &fakeAPI{}
	var connects, closes int
	sess, err := OpenExisting(context.Background(), api, "prof-77", 0, stubConnector(&connects, &closes))
	if err != nil {
		t.Fatalf("open existing: %v", err)
	}
	if api.created != 0 {
		t.Fatalf("不应该建新 profile，实建 %d 次", api.created)
	}
	if sess.ProfileID() != "prof-77" {
		t.Fatalf("profile id 不对: %s", sess.ProfileID())
	}
	sess.Close(context.Background())
	if api.stopped != 1 || closes != 1 {
		t.Fatalf("收尾没走全: stopped=%d closes=%d", api.stopped, closes)
	}
}

func TestSessionCloseToleratesNilPage(t *testing.T) {
	// 半路失败的 Session 可能没有连接句柄，Close 不许炸
	s := &Session{}
	s.Close(context.Background())
}
