package browser

import (
	"fmt"
	"time"
)

// Actions 是带拟人延时和弹层自愈的动作集。每个动作失败时先清一轮
// 弹层再重试一次，再失败才向上报错。
type Actions struct {
	page  Page
	delay DelayPolicy
	// 单个元素等待的上限
	Timeout time.Duration
}

func NewActions(page Page, delay DelayPolicy, timeout time.Duration) *Actions {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Actions{page: page, delay: delay, Timeout: timeout}
}

func (a *Actions) Page() Page { return a.page }

func (a *Actions) withRecovery(what string, fn func() error) error {
	if err := fn(); err == nil {
		return nil
	}
	SweepPopups(a.page)
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (a *Actions) Click(sel string) error {
	a.delay.PreAction()
	return a.withRecovery("点击 "+sel, func() error {
		return a.page.Click(sel, a.Timeout)
	})
}

// ClickAny 按给定顺序逐个短等候选出现，点第一个等到的，
// 全部超时才报错带全部候选。
func (a *Actions) ClickAny(sels ...string) error {
	a.delay.PreAction()
	wait := 2 * time.Second
	if a.Timeout < wait {
		wait = a.Timeout
	}
	for _, sel := range sels {
		if err := a.page.WaitVisible(sel, wait); err != nil {
			continue
		}
		return a.withRecovery("点击 "+sel, func() error {
			return a.page.Click(sel, a.Timeout)
		})
	}
	return fmt.Errorf("点击: 候选 %v 都没等到", sels)
}

// ClickNth 点一组候选里的第 n 个。
func (a *Actions) ClickNth(sel string, n int) error {
	a.delay.PreAction()
	return a.withRecovery(fmt.Sprintf("点击 %s 第 %d 个", sel, n), func() error {
		return a.page.ClickNth(sel, n, a.Timeout)
	})
}

// Type 逐字符输入，带逐键间隔。
func (a *Actions) Type(sel, text string) error {
	a.delay.PreAction()
	if err := a.withRecovery("输入 "+sel, func() error {
		return a.page.WaitVisible(sel, a.Timeout)
	}); err != nil {
		return err
	}
	for _, r := range text {
		if err := a.page.Input(sel, string(r), a.Timeout); err != nil {
			return fmt.Errorf("输入 %s: %w", sel, err)
		}
		a.delay.PerKey()
	}
	return nil
}

// Check 勾选复选框，已勾选的不再点。
func (a *Actions) Check(sel string) error {
	a.delay.PreAction()
	checked := sel + ":checked"
	if a.page.Has(checked) {
		return nil
	}
	return a.withRecovery("勾选 "+sel, func() error {
		return a.page.Click(sel, a.Timeout)
	})
}
