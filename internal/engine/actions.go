package engine

import (
	"github.com/haihvite/printiful-bot/internal/model"
)

// Action 是面板能触发的四种账号任务。
type Action string

const (
	ActionRegister Action = "register"
	ActionLogin    Action = "login"
	ActionDeposit  Action = "deposit"
	ActionBilling  Action = "billing"
)

func (a Action) Valid() bool {
	switch a {
	case ActionRegister, ActionLogin, ActionDeposit, ActionBilling:
		return true
	}
	return false
}

// Eligible 判断账号当前状态能不能跑这个动作。批量入口用它筛候选，
// 单账号入口用它拦脏请求。
func Eligible(action Action, acc model.Account) bool {
	switch action {
	case ActionRegister:
		return acc.State == model.StateIdle
	case ActionLogin:
		return acc.State == model.StateRegistered && acc.ProfileID != ""
	case ActionDeposit:
		return acc.State == model.StateRegistered && acc.ProfileID != "" && acc.Amount != ""
	case ActionBilling:
		return acc.State == model.StateRegistered && acc.ProfileID != "" && acc.Address != ""
	}
	return false
}
