package browser

import (
	"time"
)

// popupRule 描述一类弹层：看到 Probe 可见就先试 Dismiss，
// 没有可点的关闭件就按 Escape 兜底。
type popupRule struct {
	Name    string
	Probe   string
	Dismiss string
	// Escape 在 Dismiss 缺席或点不到时使用
	EscapeFallback bool
}

var popupRules = []popupRule{
	{
		Name:    "cookie",
		Probe:   "button[data-cookiefirst-action='accept']",
		Dismiss: "button[data-cookiefirst-action='accept']",
	},
	{
		Name:           "promo",
		Probe:          "div.promo-popup__content",
		Dismiss:        "div.promo-popup__content a.pf-btn",
		EscapeFallback: true,
	},
	{
		Name:           "modal",
		Probe:          "div.pf-modal__content",
		Dismiss:        "div.pf-modal__content button[aria-label='Close']",
		EscapeFallback: true,
	},
}

const dismissTimeout = 2 * time.Second

// SweepPopups 把当前可见的弹层各处理一遍，返回处理掉的数量。
// 关不掉的弹层不算错误，后续动作失败时还有一次重试机会。
func SweepPopups(page Page) int {
	closed := 0
	for _, rule := range popupRules {
		if !page.Visible(rule.Probe) {
			continue
		}
		if page.Visible(rule.Dismiss) {
			if err := page.Click(rule.Dismiss, dismissTimeout); err == nil {
				closed++
				continue
			}
		}
		if rule.EscapeFallback {
			if err := page.Press("Escape"); err == nil {
				closed++
			}
		}
	}
	return closed
}

// SweepPopupsFor 在预算时间内轮询等弹层出现。落地页的弹层不是立刻
// 渲染的，扫一轮没扫到不代表后面不会冒出来。处理掉任意一个就返回
// true，预算烧完什么都没等到返回 false。
func SweepPopupsFor(page Page, budget, interval time.Duration) bool {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	deadline := time.Now().Add(budget)
	for {
		if SweepPopups(page) > 0 {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
