package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/haihvite/printiful-bot/internal/browser"
	"github.com/haihvite/printiful-bot/internal/model"
)

// SessionFlows 是登录后才能跑的三个流程。除登录的硬跳失败外，
// 所有失败都落为布尔结果加一条状态消息，不向上抛。
type SessionFlows struct {
	Acts    *browser.Actions
	Sel     Selectors
	BaseURL string
	Status  StatusFunc
}

func (f *SessionFlows) status(accountID, msg string) {
	if f.Status != nil {
		f.Status(accountID, msg)
	}
}

func (f *SessionFlows) land(path string) error {
	page := f.Acts.Page()
	if err := page.Navigate(f.BaseURL + path); err != nil {
		return err
	}
	_ = page.WaitDOMReady(10 * time.Second)
	browser.SweepPopups(page)
	return nil
}

// Login 确认会话有效：落到面板；被踢回登录页就重新登一次。
// 导航本身失败是硬错误，凭据不对只是布尔失败。
func (f *SessionFlows) Login(accountID string, acc model.Account) (bool, error) {
	page := f.Acts.Page()
	f.status(accountID, "检查登录态")
	if err := f.land(f.Sel.DashboardPath); err != nil {
		return false, fmt.Errorf("打开面板: %w", err)
	}
	if !strings.Contains(page.URL(), f.Sel.LoginPath) {
		f.status(accountID, "会话仍然有效")
		return true, nil
	}

	f.status(accountID, "会话失效，重新登录")
	if err := f.Acts.Type(f.Sel.LoginEmail, acc.Email); err != nil {
		f.status(accountID, "登录失败："+err.Error())
		return false, nil
	}
	if err := f.Acts.Type(f.Sel.LoginPassword, acc.Password); err != nil {
		f.status(accountID, "登录失败："+err.Error())
		return false, nil
	}
	if err := f.Acts.Click(f.Sel.LoginSubmit); err != nil {
		f.status(accountID, "登录失败："+err.Error())
		return false, nil
	}
	_ = page.WaitDOMReady(15 * time.Second)
	if strings.Contains(page.URL(), f.Sel.LoginPath) {
		f.status(accountID, "登录后仍停在登录页")
		return false, nil
	}
	f.status(accountID, "登录成功")
	return true, nil
}

// Deposit 往钱包里充 acc.Amount。
func (f *SessionFlows) Deposit(accountID string, acc model.Account) bool {
	f.status(accountID, "打开钱包页")
	if err := f.land(f.Sel.WalletPath); err != nil {
		f.status(accountID, "打开钱包页失败："+err.Error())
		return false
	}
	if err := f.Acts.Type(f.Sel.AmountField, acc.Amount); err != nil {
		f.status(accountID, "填充值金额失败："+err.Error())
		return false
	}
	if f.Acts.Page().Visible(f.Sel.PaymentMethod) {
		if err := f.Acts.Click(f.Sel.PaymentMethod); err != nil {
			f.status(accountID, "选支付方式失败："+err.Error())
			return false
		}
	}
	f.status(accountID, "充值提交完成，金额 "+acc.Amount)
	return true
}

// Billing 填账单地址。
func (f *SessionFlows) Billing(accountID string, acc model.Account) bool {
	f.status(accountID, "打开账单页")
	if err := f.land(f.Sel.BillingPath); err != nil {
		f.status(accountID, "打开账单页失败："+err.Error())
		return false
	}
	fields := []struct{ sel, value string }{
		{f.Sel.BillingName, acc.FullName},
		{f.Sel.BillingAddress, acc.Address},
		{f.Sel.BillingCity, acc.City},
		{f.Sel.BillingRegion, acc.Region},
		{f.Sel.BillingZip, acc.ZipCode},
	}
	for _, field := range fields {
		if err := f.Acts.Type(field.sel, field.value); err != nil {
			f.status(accountID, "填账单信息失败："+err.Error())
			return false
		}
	}
	if f.Acts.Page().Visible(f.Sel.BillingSave) {
		if err := f.Acts.Click(f.Sel.BillingSave); err != nil {
			f.status(accountID, "保存账单信息失败："+err.Error())
			return false
		}
	}
	f.status(accountID, "账单信息已保存")
	return true
}
