package notify

// AccountRegisteredEvent 在注册流程确认登录态之后发出。
type AccountRegisteredEvent struct {
	At        int64  `json:"atMs"`
	Email     string `json:"email"`
	ProfileID string `json:"profileId,omitempty"`
}

type Notifier interface {
	AccountRegistered(evt AccountRegisteredEvent)
}
