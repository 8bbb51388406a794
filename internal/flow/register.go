package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/haihvite/printiful-bot/internal/browser"
	"github.com/haihvite/printiful-bot/internal/model"
)

// Registration 负责把一个全新 profile 带到“注册表单已提交”为止。
// 提交后的判定交给 Detector。
type Registration struct {
	Acts    *browser.Actions
	Sel     Selectors
	BaseURL string
	Delay   browser.DelayPolicy
	Status  StatusFunc
	// 落地后清弹层的轮询预算
	PopupBudget time.Duration
}

func (r *Registration) status(accountID, msg string) {
	if r.Status != nil {
		r.Status(accountID, msg)
	}
}

func (r *Registration) onRegisterPage() bool {
	page := r.Acts.Page()
	if strings.Contains(page.URL(), r.Sel.RegisterPath) {
		return true
	}
	return page.Has(r.Sel.EmailReveal) || page.Has(r.Sel.FullName)
}

// EnsureOnRegisterPage 确认当前在注册页。不在就清弹层、按优先级点导航
// 入口试三轮，还不行就硬跳注册地址再验一次，仍失败才报错。
func (r *Registration) EnsureOnRegisterPage(accountID string) error {
	page := r.Acts.Page()
	if r.onRegisterPage() {
		return nil
	}
	for round := 0; round < 3; round++ {
		browser.SweepPopups(page)
		if err := r.Acts.ClickAny(r.Sel.RegisterNav...); err != nil {
			continue
		}
		_ = page.WaitDOMReady(5 * time.Second)
		if r.onRegisterPage() {
			return nil
		}
	}
	r.status(accountID, "找不到注册入口，直接跳注册页")
	if err := page.Navigate(r.BaseURL + r.Sel.RegisterPath); err != nil {
		return fmt.Errorf("跳转注册页: %w", err)
	}
	_ = page.WaitDOMReady(5 * time.Second)
	browser.SweepPopups(page)
	if !r.onRegisterPage() {
		return fmt.Errorf("跳转后仍不在注册页，当前 %s", page.URL())
	}
	return nil
}

// FillSignupForm 展开邮箱注册表单（如果有这个入口）并填完三个字段、
// 勾服务条款。不提交。
func (r *Registration) FillSignupForm(acc model.Account) error {
	page := r.Acts.Page()
	if page.Visible(r.Sel.EmailReveal) {
		if err := r.Acts.Click(r.Sel.EmailReveal); err != nil {
			return err
		}
	}
	if err := r.Acts.Type(r.Sel.FullName, acc.FullName); err != nil {
		return err
	}
	if err := r.Acts.Type(r.Sel.Email, acc.Email); err != nil {
		return err
	}
	if err := r.Acts.Type(r.Sel.Password, acc.Password); err != nil {
		return err
	}
	return r.Acts.Check(r.Sel.Terms)
}

// SubmitSignup 是独立的提交步骤：先停一段“核对表单”的时间再点。
// 整个序列失败时清一轮弹层重来一次，再失败才报错。
func (r *Registration) SubmitSignup(accountID string) error {
	page := r.Acts.Page()
	attempt := func() error {
		if err := page.WaitVisible(r.Sel.Submit, r.Acts.Timeout); err != nil {
			return err
		}
		r.Delay.Review()
		return page.Click(r.Sel.Submit, r.Acts.Timeout)
	}
	if err := attempt(); err != nil {
		browser.SweepPopups(page)
		if err := attempt(); err != nil {
			return fmt.Errorf("提交注册表单: %w", err)
		}
	}
	r.status(accountID, "注册表单已提交")
	// 页面跳不跳都继续，后面靠 Detector 判定
	_ = page.WaitDOMReady(10 * time.Second)
	return nil
}

// Run 串起完整注册流程：落地清弹层 → 进注册页 → 填表 → 提交。
func (r *Registration) Run(accountID string, acc model.Account) error {
	page := r.Acts.Page()
	r.status(accountID, "打开注册页")
	if err := page.Navigate(r.BaseURL); err != nil {
		return fmt.Errorf("打开首页: %w", err)
	}
	budget := r.PopupBudget
	if budget <= 0 {
		budget = 8 * time.Second
	}
	browser.SweepPopupsFor(page, budget, 500*time.Millisecond)
	if err := r.EnsureOnRegisterPage(accountID); err != nil {
		return err
	}
	r.status(accountID, "填写注册表单")
	if err := r.FillSignupForm(acc); err != nil {
		return err
	}
	return r.SubmitSignup(accountID)
}
