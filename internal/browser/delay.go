package browser

import (
	"math/rand"
	"time"
)

// DelayPolicy 决定动作之间停多久。线上用 Human 模拟真人节奏，
// 测试注入 Zero 让流程瞬间跑完。
type DelayPolicy interface {
	PreAction()
	PerKey()
	Review()
	SurveyRead()
	SurveySettle()
}

type humanDelay struct{}

// Human 返回仿真节奏：点击前 0.5~1.5s，逐键 50~120ms，
// 提交前检查 3~5s，问卷读题 2.5~5s、答完缓 3~6s。
func Human() DelayPolicy { return humanDelay{} }

func sleepBetween(minMs, maxMs int) {
	time.Sleep(time.Duration(minMs+rand.Intn(maxMs-minMs+1)) * time.Millisecond)
}

func (humanDelay) PreAction()    { sleepBetween(500, 1500) }
func (humanDelay) PerKey()       { sleepBetween(50, 120) }
func (humanDelay) Review()       { sleepBetween(3000, 5000) }
func (humanDelay) SurveyRead()   { sleepBetween(2500, 5000) }
func (humanDelay) SurveySettle() { sleepBetween(3000, 6000) }

type zeroDelay struct{}

func Zero() DelayPolicy { return zeroDelay{} }

func (zeroDelay) PreAction()    {}
func (zeroDelay) PerKey()       {}
func (zeroDelay) Review()       {}
func (zeroDelay) SurveyRead()   {}
func (zeroDelay) SurveySettle() {}
