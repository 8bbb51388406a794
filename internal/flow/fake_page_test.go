package flow

import (
	"errors"
	"time"
)

// scriptPage 是流程测试用的脚本化页面。afterClick/afterInput 钩子
// 让测试模拟“点完之后页面变了”。
type scriptPage struct {
	url     string
	visible map[string]bool
	has     map[string]bool
	counts  map[string]int

	clicks     []string
	inputs     []string
	pressed    []string
	navigated  []string
	afterClick func(sel string)
	afterInput func(text string)
}

func newScriptPage() *scriptPage {
	return &scriptPage{
		visible: map[string]bool{},
		has:     map[string]bool{},
		counts:  map[string]int{},
	}
}

func (p *scriptPage) URL() string { return p.url }

func (p *scriptPage) Navigate(u string) error {
	p.url = u
	p.navigated = append(p.navigated, u)
	return nil
}

func (p *scriptPage) WaitDOMReady(time.Duration) error { return nil }
func (p *scriptPage) Has(sel string) bool              { return p.has[sel] || p.visible[sel] }
func (p *scriptPage) Visible(sel string) bool          { return p.visible[sel] }
func (p *scriptPage) Count(sel string) int             { return p.counts[sel] }
func (p *scriptPage) Text(string) (string, error)      { return "", nil }

func (p *scriptPage) Press(key string) error {
	p.pressed = append(p.pressed, key)
	return nil
}

func (p *scriptPage) WaitVisible(sel string, _ time.Duration) error {
	if !p.visible[sel] {
		return errors.New("不可见: " + sel)
	}
	return nil
}

func (p *scriptPage) WaitDetached(string, time.Duration) error { return nil }

func (p *scriptPage) Click(sel string, _ time.Duration) error {
	if !p.visible[sel] {
		return errors.New("点不到: " + sel)
	}
	p.clicks = append(p.clicks, sel)
	if p.afterClick != nil {
		p.afterClick(sel)
	}
	return nil
}

func (p *scriptPage) ClickNth(sel string, n int, _ time.Duration) error {
	if n < 0 || n >= p.counts[sel] {
		return errors.New("越界")
	}
	p.clicks = append(p.clicks, sel)
	if p.afterClick != nil {
		p.afterClick(sel)
	}
	return nil
}

func (p *scriptPage) Input(sel, text string, _ time.Duration) error {
	p.inputs = append(p.inputs, text)
	if p.afterInput != nil {
		p.afterInput(text)
	}
	return nil
}
