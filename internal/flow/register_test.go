package flow

import (
	"strings"
	"testing"
	"time"

	"github.com/haihvite/printiful-bot/internal/browser"
	"github.com/haihvite/printiful-bot/internal/model"
)

func newRegistration(p *scriptPage) *Registration {
	return &Registration{
		Acts:        browser.NewActions(p, browser.Zero(), time.Second),
		Sel:         DefaultSelectors(),
		BaseURL:     testBase,
		Delay:       browser.Zero(),
		PopupBudget: time.Millisecond,
	}
}

func TestEnsureOnRegisterPageViaNav(t *testing.T) {
	sel := DefaultSelectors()
	p := newScriptPage()
	p.url = testBase + "/"
	p.visible[sel.RegisterNav[0]] = true
	p.afterClick = func(clicked string) {
		if clicked == sel.RegisterNav[0] {
			p.url = testBase + sel.RegisterPath
		}
	}

	r := newRegistration(p)
	if err := r.EnsureOnRegisterPage("acc-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(p.navigated) != 0 {
		t.Fatalf("入口能点到就不该硬跳: %v", p.navigated)
	}
}

func TestEnsureOnRegisterPageHardNavigateFallback(t *testing.T) {
	p := newScriptPage()
	p.url = testBase + "/"

	r := newRegistration(p)
	if err := r.EnsureOnRegisterPage("acc-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	// 所有入口都不可见，只能硬跳
	if len(p.navigated) != 1 || !strings.HasSuffix(p.navigated[0], "/auth/register") {
		t.Fatalf("应当硬跳注册页: %v", p.navigated)
	}
}

func TestEnsureOnRegisterPageAlreadyThere(t *testing.T) {
	p := newScriptPage()
	p.url = testBase + "/auth/register"

	r := newRegistration(p)
	if err := r.EnsureOnRegisterPage("acc-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(p.clicks) != 0 || len(p.navigated) != 0 {
		t.Fatal("已经在注册页不该有任何动作")
	}
}

func TestFillSignupFormRevealsAndFills(t *testing.T) {
	sel := DefaultSelectors()
	p := newScriptPage()
	p.visible[sel.EmailReveal] = true
	p.visible[sel.FullName] = true
	p.visible[sel.Email] = true
	p.visible[sel.Password] = true
	p.visible[sel.Terms] = true

	r := newRegistration(p)
	acc := model.Account{Email: "a@x.com", Password: "pw1", FullName: "Alice"}
	if err := r.FillSignupForm(acc); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if p.clicks[0] != sel.EmailReveal {
		t.Fatalf("应当先展开邮箱表单: %v", p.clicks)
	}
	typed := strings.Join(p.inputs, "")
	if !strings.Contains(typed, "a@x.com") || !strings.Contains(typed, "Alice") {
		t.Fatalf("表单内容没填全: %q", typed)
	}
	if p.clicks[len(p.clicks)-1] != sel.Terms {
		t.Fatalf("最后应当勾条款: %v", p.clicks)
	}
}

func TestSubmitSignupRetriesOnceAfterPopupSweep(t *testing.T) {
	sel := DefaultSelectors()
	p := newScriptPage()
	// 提交按钮被 promo 弹层挡着：第一轮 WaitVisible 失败，
	// 清完弹层后按钮露出来
	p.visible["div.promo-popup__content"] = true
	p.visible["div.promo-popup__content a.pf-btn"] = true
	p.afterClick = func(clicked string) {
		if clicked == "div.promo-popup__content a.pf-btn" {
			delete(p.visible, "div.promo-popup__content")
			p.visible[sel.Submit] = true
		}
	}

	r := newRegistration(p)
	if err := r.SubmitSignup("acc-1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if p.clicks[len(p.clicks)-1] != sel.Submit {
		t.Fatalf("最终应当点到提交按钮: %v", p.clicks)
	}
}

func TestSubmitSignupFailsWhenButtonNeverAppears(t *testing.T) {
	p := newScriptPage()
	r := newRegistration(p)
	if err := r.SubmitSignup("acc-1"); err == nil {
		t.Fatal("提交按钮一直不在应当报错")
	}
}
