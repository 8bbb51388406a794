package model

import "time"

// AccountState 是账号生命周期的结构化状态。
// 展示用的进度文案单独放在 StatusMsg / progress_log 里，状态机逻辑不解析文案。
type AccountState string

const (
	StateIdle       AccountState = "idle"
	StateQueued     AccountState = "queued"
	StateRunning    AccountState = "running"
	StateRegistered AccountState = "registered"
	StateFailed     AccountState = "failed"
)

func (s AccountState) Valid() bool {
	switch s {
	case StateIdle, StateQueued, StateRunning, StateRegistered, StateFailed:
		return true
	}
	return false
}

type Account struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`

	State     AccountState `json:"state"`
	StatusMsg string       `json:"statusMsg,omitempty"`

	// ProfileID 是 GPM 下发的指纹浏览器 profile 标识。
	// 首次注册成功写入后不再变化，后续 login/deposit/billing 都复用它。
	ProfileID string `json:"profileId,omitempty"`

	Amount  string `json:"amount,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProgressEntry 是 progress_log 的一条追加记录，只增不删。
type ProgressEntry struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"accountId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
