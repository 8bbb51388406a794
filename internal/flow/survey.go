package flow

import (
	"math/rand"

	"github.com/haihvite/printiful-bot/internal/browser"
)

// 自由填空题的答案词表，都是“从哪听说我们”类问题的常见回答。
var surveyVocab = []string{
	"Google",
	"YouTube",
	"A friend told me",
	"Instagram",
	"Reddit",
}

// Survey 逐步消解注册后的引导问卷。步数有硬上限，
// 即使站点把按钮无限续下去也不会转死循环。
type Survey struct {
	Acts     *browser.Actions
	Sel      Selectors
	MaxSteps int
	// 连续几步什么都没匹配到就不再耗（问卷切题时 DOM 会短暂两头都不在）
	IdleLimit int
	Delay     browser.DelayPolicy
	Status    StatusFunc
}

func (s *Survey) status(accountID, msg string) {
	if s.Status != nil {
		s.Status(accountID, msg)
	}
}

// Run 返回问卷是否消失（完成或本来就没有）。
func (s *Survey) Run(accountID string) bool {
	maxSteps := s.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 50
	}
	idleLimit := s.IdleLimit
	if idleLimit <= 0 {
		idleLimit = 15
	}
	page := s.Acts.Page()
	idle := 0
	for step := 0; step < maxSteps; step++ {
		if !page.Has(s.Sel.SurveyRoot) {
			return true
		}
		s.Delay.SurveyRead()

		switch {
		case page.Visible(s.Sel.SurveyFreeText):
			answer := surveyVocab[rand.Intn(len(surveyVocab))]
			if err := s.Acts.Type(s.Sel.SurveyFreeText, answer); err != nil {
				return false
			}
			if page.Visible(s.Sel.SurveyNext) {
				_ = s.Acts.Click(s.Sel.SurveyNext)
			}
			idle = 0
			s.status(accountID, "问卷：填了一道填空题")
		case page.Count(s.Sel.SurveyAnswer) > 0:
			n := page.Count(s.Sel.SurveyAnswer)
			if err := s.Acts.ClickNth(s.Sel.SurveyAnswer, rand.Intn(n)); err != nil {
				return false
			}
			if page.Visible(s.Sel.SurveyNext) {
				_ = s.Acts.Click(s.Sel.SurveyNext)
			}
			idle = 0
			s.status(accountID, "问卷：选了一道选择题")
		default:
			idle++
			if idle >= idleLimit {
				return !page.Has(s.Sel.SurveyRoot)
			}
		}
		s.Delay.SurveySettle()
	}
	return !page.Has(s.Sel.SurveyRoot)
}
