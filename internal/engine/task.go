package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/haihvite/printiful-bot/internal/browser"
	"github.com/haihvite/printiful-bot/internal/config"
	"github.com/haihvite/printiful-bot/internal/flow"
	"github.com/haihvite/printiful-bot/internal/gpm"
	"github.com/haihvite/printiful-bot/internal/logbus"
	"github.com/haihvite/printiful-bot/internal/model"
	"github.com/haihvite/printiful-bot/internal/notify"
	"github.com/haihvite/printiful-bot/internal/proxy"
	"github.com/haihvite/printiful-bot/internal/store/sqlite"
)

// BrowserRunner 执行真实的浏览器任务：起 profile、跑流程、收尾。
// 不管成功失败还是半路炸掉，Session.Close 都会走到且只走一次。
type BrowserRunner struct {
	GPMCfg  config.GPMConfig
	FlowCfg config.FlowConfig
	API     gpm.ProfileAPI
	// 为空时用 RodConnector
	Connect  gpm.Connector
	Store    *sqlite.Store
	Bus      *logbus.Bus
	Notifier notify.Notifier
	CSVPath  string
}

func (r *BrowserRunner) delay() browser.DelayPolicy {
	if r.FlowCfg.FastDelays {
		return browser.Zero()
	}
	return browser.Human()
}

func (r *BrowserRunner) status(action string) flow.StatusFunc {
	return func(accountID, msg string) {
		ctx := context.Background()
		if _, err := r.Store.AppendProgress(ctx, accountID, msg); err != nil {
			r.Bus.Log("error", "写进度日志失败", map[string]any{"accountId": accountID, "err": err.Error()})
		}
		r.Bus.Progress(accountID, action, msg)
	}
}

func (r *BrowserRunner) open(ctx context.Context, acc model.Account, lease proxy.Lease, create bool) (*gpm.Session, error) {
	if r.GPMCfg.Mode == "local" {
		return gpm.OpenLocal(ctx)
	}
	if !create {
		return gpm.OpenExisting(ctx, r.API, acc.ProfileID, r.GPMCfg.SettleDelay(), r.Connect)
	}
	version := browser.PickChromeVersion()
	req := gpm.DefaultCreateRequest(acc.Email, lease.Addr(), version)
	// UA 与 profile 的浏览器版本保持一致，交给 GPM 自动生成会对不上号
	req.UserAgent = browser.ChromeUserAgent(version)
	return gpm.Open(ctx, r.API, req, r.GPMCfg.SettleDelay(), r.Connect)
}

func (r *BrowserRunner) Run(ctx context.Context, action Action, acc model.Account, lease proxy.Lease) error {
	create := action == ActionRegister && acc.ProfileID == ""
	sess, err := r.open(ctx, acc, lease, create)
	if err != nil {
		return fmt.Errorf("启动浏览器环境: %w", err)
	}
	defer sess.Close(ctx)

	if create && sess.ProfileID() != "" {
		// 绑定只写一次，profile 建出来了就不能丢
		if err := r.Store.SetAccountProfileID(ctx, acc.ID, sess.ProfileID()); err != nil {
			r.Bus.Log("error", "写 profile 绑定失败", map[string]any{"accountId": acc.ID, "err": err.Error()})
		}
		acc.ProfileID = sess.ProfileID()
	}

	status := r.status(string(action))
	acts := browser.NewActions(sess.Page(), r.delay(), r.FlowCfg.SelectorTimeout())
	sel := flow.DefaultSelectors()

	switch action {
	case ActionRegister:
		return r.register(acc, acts, sel, status)
	case ActionLogin:
		ok, err := r.login(acc, acts, sel, status)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("登录失败")
		}
		return nil
	case ActionDeposit:
		return r.sessionAction(acc, acts, sel, status, "充值", func(f *flow.SessionFlows) bool {
			return f.Deposit(acc.ID, acc)
		})
	case ActionBilling:
		return r.sessionAction(acc, acts, sel, status, "填写账单", func(f *flow.SessionFlows) bool {
			return f.Billing(acc.ID, acc)
		})
	}
	return fmt.Errorf("未知动作 %q", action)
}

func (r *BrowserRunner) register(acc model.Account, acts *browser.Actions, sel flow.Selectors, status flow.StatusFunc) error {
	reg := &flow.Registration{
		Acts:        acts,
		Sel:         sel,
		BaseURL:     r.FlowCfg.BaseURL,
		Delay:       r.delay(),
		Status:      status,
		PopupBudget: r.FlowCfg.PopupBudget(),
	}
	if err := reg.Run(acc.ID, acc); err != nil {
		return err
	}

	survey := &flow.Survey{
		Acts:      acts,
		Sel:       sel,
		MaxSteps:  r.FlowCfg.SurveyMaxSteps,
		IdleLimit: r.FlowCfg.SurveyIdleLimit,
		Delay:     r.delay(),
		Status:    status,
	}
	det := &flow.Detector{
		Acts:       acts,
		Sel:        sel,
		BaseURL:    r.FlowCfg.BaseURL,
		Survey:     survey,
		Status:     status,
		TimeBudget: r.FlowCfg.DetectTimeout(),
		IdleLimit:  r.FlowCfg.DetectIdleLimit,
		Grace:      r.FlowCfg.DetectGrace(),
	}
	if !det.Wait(acc.ID) {
		return errors.New("注册结果等待失败")
	}

	if r.CSVPath != "" {
		if err := appendRegisteredCSV(r.CSVPath, acc); err != nil {
			r.Bus.Log("error", "追加注册导出失败", map[string]any{"accountId": acc.ID, "err": err.Error()})
		}
	}
	if r.Notifier != nil {
		r.Notifier.AccountRegistered(notify.AccountRegisteredEvent{
			Email:     acc.Email,
			ProfileID: acc.ProfileID,
		})
	}
	return nil
}

func (r *BrowserRunner) login(acc model.Account, acts *browser.Actions, sel flow.Selectors, status flow.StatusFunc) (bool, error) {
	f := &flow.SessionFlows{
		Acts:    acts,
		Sel:     sel,
		BaseURL: r.FlowCfg.BaseURL,
		Status:  status,
	}
	return f.Login(acc.ID, acc)
}

func (r *BrowserRunner) sessionAction(acc model.Account, acts *browser.Actions, sel flow.Selectors, status flow.StatusFunc, name string, do func(*flow.SessionFlows) bool) error {
	f := &flow.SessionFlows{
		Acts:    acts,
		Sel:     sel,
		BaseURL: r.FlowCfg.BaseURL,
		Status:  status,
	}
	ok, err := f.Login(acc.ID, acc)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("登录失败，无法" + name)
	}
	if !do(f) {
		return errors.New(name + "失败")
	}
	return nil
}
