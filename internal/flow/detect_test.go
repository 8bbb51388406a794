package flow

import (
	"strings"
	"testing"
	"time"

	"github.com/haihvite/printiful-bot/internal/browser"
)

const testBase = "https://www.printful.com"

// newDetector 返回用假时钟驱动的 Detector：每次 Sleep 推进一格，
// 并回调 script 让测试改页面。
func newDetector(p *scriptPage, script func(cycle int)) (*Detector, *[]string) {
	sel := DefaultSelectors()
	var messages []string
	now := time.Unix(0, 0)
	cycle := 0
	d := &Detector{
		Acts:    browser.NewActions(p, browser.Zero(), time.Second),
		Sel:     sel,
		BaseURL: testBase,
		Survey: &Survey{
			Acts:      browser.NewActions(p, browser.Zero(), time.Second),
			Sel:       sel,
			MaxSteps:  50,
			IdleLimit: 1,
			Delay:     browser.Zero(),
		},
		Status:     func(_, msg string) { messages = append(messages, msg) },
		TimeBudget: 120 * time.Second,
		IdleLimit:  5,
		Grace:      30 * time.Second,
		Poll:       time.Second,
		Sleep: func(d time.Duration) {
			now = now.Add(d)
			cycle++
			if script != nil {
				script(cycle)
			}
		},
		Now: func() time.Time { return now },
	}
	return d, &messages
}

func TestDetectorSucceedsOnDashboardURL(t *testing.T) {
	p := newScriptPage()
	p.url = testBase + "/dashboard/default?welcome=1"

	d, _ := newDetector(p, nil)
	if !d.Wait("acc-1") {
		t.Fatal("面板 URL 前缀应当算成功")
	}
}

func TestDetectorSucceedsWhenMarkerAppears(t *testing.T) {
	p := newScriptPage()
	p.url = testBase + "/auth/register"

	d, _ := newDetector(p, func(cycle int) {
		if cycle == 3 {
			p.has["a[href='/orders']"] = true
		}
	})
	if !d.Wait("acc-1") {
		t.Fatal("导航标记出现后应当算成功")
	}
}

func TestDetectorFailsOnIdleBudget(t *testing.T) {
	p := newScriptPage()
	p.url = testBase + "/auth/register"

	d, messages := newDetector(p, nil)
	d.Grace = time.Hour // 关掉兜底跳转，纯等 idle 耗尽
	if d.Wait("acc-1") {
		t.Fatal("什么信号都没有不该报成功")
	}
	joined := strings.Join(*messages, ";")
	if !strings.Contains(joined, "无进展") {
		t.Fatalf("失败应当通过回调汇报: %s", joined)
	}
}

func TestDetectorFailsOnTimeBudget(t *testing.T) {
	p := newScriptPage()
	p.url = testBase + "/auth/register"

	d, _ := newDetector(p, func(cycle int) {
		// 每圈 URL 都变，idle 永远清零，只能靠时间预算兜住
		p.url = testBase + "/auth/register?step=" + strings.Repeat("x", cycle%7)
	})
	d.Grace = time.Hour
	if d.Wait("acc-1") {
		t.Fatal("时间预算耗尽应当失败而不是卡死")
	}
}

func TestDetectorDismissesEmailConfirmPopup(t *testing.T) {
	sel := DefaultSelectors()
	p := newScriptPage()
	p.url = testBase + "/auth/register"
	p.visible[sel.EmailConfirmCloser] = true

	p.afterClick = func(clicked string) {
		if clicked == sel.EmailConfirmCloser {
			delete(p.visible, sel.EmailConfirmCloser)
			p.has["a[href='/stores']"] = true
		}
	}

	d, _ := newDetector(p, nil)
	if !d.Wait("acc-1") {
		t.Fatal("关掉确认弹窗后出现标记应当成功")
	}
	if len(p.clicks) == 0 || p.clicks[0] != sel.EmailConfirmCloser {
		t.Fatalf("应当先点确认弹窗: %v", p.clicks)
	}
}

func TestDetectorGraceFallbackNavigatesOnce(t *testing.T) {
	p := newScriptPage()
	p.url = testBase + "/auth/register"

	// 兜底跳转发生后，下一圈才出现成功标记
	d, _ := newDetector(p, func(cycle int) {
		if len(p.navigated) > 0 {
			p.has["a[href='/products']"] = true
		}
	})
	d.Grace = 2 * time.Second
	d.IdleLimit = 100
	d.TimeBudget = 20 * time.Second

	if !d.Wait("acc-1") {
		t.Fatal("兜底跳转后应当检出成功")
	}
	if len(p.navigated) != 1 {
		t.Fatalf("兜底跳转只许一次，实跳 %d 次", len(p.navigated))
	}
	if p.navigated[0] != testBase+"/dashboard" {
		t.Fatalf("兜底地址不对: %s", p.navigated[0])
	}
}

func TestDetectorDelegatesToSurvey(t *testing.T) {
	sel := DefaultSelectors()
	p := newScriptPage()
	p.url = testBase + "/auth/register"
	p.has[sel.SurveyRoot] = true
	p.counts[sel.SurveyAnswer] = 2

	answered := 0
	p.afterClick = func(string) {
		answered++
		if answered >= 2 {
			delete(p.has, sel.SurveyRoot)
			p.counts[sel.SurveyAnswer] = 0
			p.url = testBase + "/dashboard/default"
		}
	}

	d, messages := newDetector(p, nil)
	if !d.Wait("acc-1") {
		t.Fatal("答完问卷落到面板应当成功")
	}
	if answered != 2 {
		t.Fatalf("问卷没答: %d", answered)
	}
	if !strings.Contains(strings.Join(*messages, ";"), "问卷") {
		t.Fatalf("进度回调里应当有问卷的痕迹: %v", *messages)
	}
}
