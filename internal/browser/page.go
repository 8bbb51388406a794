package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// Page 把流程代码和 rod 隔开：流程只依赖这几个动作，
// 测试里用脚本化的假页面就能把分支全部跑一遍。
type Page interface {
	URL() string
	Navigate(url string) error
	WaitDOMReady(timeout time.Duration) error
	Has(sel string) bool
	Visible(sel string) bool
	Count(sel string) int
	Text(sel string) (string, error)
	WaitVisible(sel string, timeout time.Duration) error
	WaitDetached(sel string, timeout time.Duration) error
	Click(sel string, timeout time.Duration) error
	ClickNth(sel string, n int, timeout time.Duration) error
	Input(sel, text string, timeout time.Duration) error
	Press(key string) error
}

type rodPage struct {
	p *rod.Page
}

// Wrap 把 rod 页面包成 Page。
func Wrap(p *rod.Page) Page {
	return &rodPage{p: p}
}

func (r *rodPage) URL() string {
	info, err := r.p.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (r *rodPage) Navigate(url string) error {
	wait := r.p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := r.p.Navigate(url); err != nil {
		return err
	}
	return rod.Try(wait)
}

func (r *rodPage) WaitDOMReady(timeout time.Duration) error {
	return rod.Try(func() {
		r.p.Timeout(timeout).MustWaitDOMStable()
	})
}

func (r *rodPage) Has(sel string) bool {
	has, _, err := r.p.Has(sel)
	return err == nil && has
}

func (r *rodPage) Visible(sel string) bool {
	has, el, err := r.p.Has(sel)
	if err != nil || !has {
		return false
	}
	visible, err := el.Visible()
	return err == nil && visible
}

func (r *rodPage) Count(sel string) int {
	els, err := r.p.Elements(sel)
	if err != nil {
		return 0
	}
	return len(els)
}

func (r *rodPage) Text(sel string) (string, error) {
	has, el, err := r.p.Has(sel)
	if err != nil {
		return "", err
	}
	if !has {
		return "", fmt.Errorf("browser: 找不到元素 %s", sel)
	}
	return el.Text()
}

func (r *rodPage) WaitVisible(sel string, timeout time.Duration) error {
	return rod.Try(func() {
		r.p.Timeout(timeout).MustElement(sel).MustWaitVisible()
	})
}

func (r *rodPage) WaitDetached(sel string, timeout time.Duration) error {
	has, el, err := r.p.Has(sel)
	if err != nil || !has {
		return nil
	}
	return rod.Try(func() {
		el.Timeout(timeout).MustWaitInvisible()
	})
}

func (r *rodPage) Click(sel string, timeout time.Duration) error {
	return rod.Try(func() {
		el := r.p.Timeout(timeout).MustElement(sel)
		el.MustWaitVisible()
		el.MustClick()
	})
}

func (r *rodPage) ClickNth(sel string, n int, timeout time.Duration) error {
	return rod.Try(func() {
		els := r.p.Timeout(timeout).MustElements(sel)
		if n < 0 || n >= len(els) {
			panic(fmt.Sprintf("browser: %s 只有 %d 个，取不到第 %d 个", sel, len(els), n))
		}
		els[n].MustClick()
	})
}

func (r *rodPage) Input(sel, text string, timeout time.Duration) error {
	return rod.Try(func() {
		el := r.p.Timeout(timeout).MustElement(sel)
		el.MustWaitVisible()
		el.MustInput(text)
	})
}

func (r *rodPage) Press(key string) error {
	k, ok := keyMap[key]
	if !ok {
		return fmt.Errorf("browser: 不认识的按键 %q", key)
	}
	return r.p.Keyboard.Press(k)
}

var keyMap = map[string]input.Key{
	"Escape": input.Escape,
	"Enter":  input.Enter,
	"Tab":    input.Tab,
}
