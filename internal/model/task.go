package model

// TaskState 是单个账号任务在引擎里的运行视图，随 ws 推送给前端。
type TaskState struct {
	AccountID     string `json:"accountId"`
	Action        string `json:"action"`
	Running       bool   `json:"running"`
	LastMessage   string `json:"lastMessage,omitempty"`
	StartedAtMs   int64  `json:"startedAtMs,omitempty"`
	FinishedAtMs  int64  `json:"finishedAtMs,omitempty"`
	LastSuccessMs int64  `json:"lastSuccessMs,omitempty"`
	LastError     string `json:"lastError,omitempty"`
}

type EngineState struct {
	Workers  int         `json:"workers"`
	InFlight int         `json:"inFlight"`
	Tasks    []TaskState `json:"tasks"`
}

// BatchResult 是批量派发的结构化返回：要么全部入队，要么一个都不动。
type BatchResult struct {
	Requested int    `json:"requested"`
	Started   int    `json:"started"`
	Message   string `json:"message,omitempty"`
}
