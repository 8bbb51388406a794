package flow

import (
	"strings"
	"time"

	"github.com/haihvite/printiful-bot/internal/browser"
)

// Detector 在注册表单提交之后盯着页面，直到出现登录态信号或预算耗尽。
// 它从不返回 error：失败通过状态回调汇报，调用方只看布尔结果。
type Detector struct {
	Acts    *browser.Actions
	Sel     Selectors
	BaseURL string
	Survey  *Survey
	Status  StatusFunc

	TimeBudget time.Duration
	IdleLimit  int
	Grace      time.Duration
	Poll       time.Duration
	// 测试里换成空实现，让预算数圈而不是数秒
	Sleep func(time.Duration)
	Now   func() time.Time
}

func (d *Detector) status(accountID, msg string) {
	if d.Status != nil {
		d.Status(accountID, msg)
	}
}

func (d *Detector) succeeded(url string) bool {
	if strings.HasPrefix(url, d.BaseURL+d.Sel.DashboardPath) {
		return true
	}
	page := d.Acts.Page()
	for _, marker := range d.Sel.SuccessMarkers {
		if page.Has(marker) {
			return true
		}
	}
	return false
}

// Wait 返回是否观察到登录态信号。每圈按优先级处理：问卷 → 邮箱确认
// 弹窗 → 成功信号 → URL 变化；超过宽限期且从未见过问卷时，硬跳一次
// 通用面板地址兜底。无进展的圈累加 idle，idle 或时间预算用尽即失败。
func (d *Detector) Wait(accountID string) bool {
	timeBudget := d.TimeBudget
	if timeBudget <= 0 {
		timeBudget = 180 * time.Second
	}
	idleLimit := d.IdleLimit
	if idleLimit <= 0 {
		idleLimit = 15
	}
	grace := d.Grace
	if grace <= 0 {
		grace = 60 * time.Second
	}
	poll := d.Poll
	if poll <= 0 {
		poll = time.Second
	}
	sleep := d.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	page := d.Acts.Page()
	// 提交按钮还挂在 DOM 上说明表单根本没走，先等它掉
	_ = page.WaitDetached(d.Sel.Submit, 10*time.Second)

	start := now()
	lastURL := page.URL()
	idle := 0
	sawSurvey := false
	forcedFallback := false

	for now().Sub(start) < timeBudget {
		progressed := false

		if page.Has(d.Sel.SurveyRoot) {
			sawSurvey = true
			d.status(accountID, "进入引导问卷")
			d.Survey.Run(accountID)
			progressed = true
		} else if page.Visible(d.Sel.EmailConfirmCloser) {
			d.status(accountID, "关掉邮箱确认弹窗")
			_ = page.Click(d.Sel.EmailConfirmCloser, 2*time.Second)
			progressed = true
		}

		url := page.URL()
		if d.succeeded(url) {
			d.status(accountID, "检测到登录态，注册完成")
			return true
		}
		if url != lastURL {
			lastURL = url
			progressed = true
		}

		if !progressed && !sawSurvey && !forcedFallback && now().Sub(start) > grace {
			d.status(accountID, "超过宽限期没动静，硬跳一次面板")
			_ = page.Navigate(d.BaseURL + d.Sel.DashboardFallbackPath)
			_ = page.WaitDOMReady(5 * time.Second)
			forcedFallback = true
			progressed = true
		}

		if progressed {
			idle = 0
		} else {
			idle++
			if idle >= idleLimit {
				d.status(accountID, "连续无进展，放弃等待")
				return false
			}
		}
		sleep(poll)
	}
	d.status(accountID, "等待注册结果超时")
	return false
}
