package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/haihvite/printiful-bot/internal/config"
	"github.com/haihvite/printiful-bot/internal/logbus"
	"github.com/haihvite/printiful-bot/internal/model"
	"github.com/haihvite/printiful-bot/internal/proxy"
	"github.com/haihvite/printiful-bot/internal/store/sqlite"
)

// ErrAccountBusy 表示账号已经有任务在跑，重复提交直接拒绝。
var ErrAccountBusy = errors.New("engine: 账号任务进行中")

// Runner 执行一个账号任务的全部浏览器工作。返回 nil 代表动作成功。
type Runner interface {
	Run(ctx context.Context, action Action, acc model.Account, lease proxy.Lease) error
}

// Engine 是任务调度器：批量准入（代理要么够数要么整批不跑）、
// 每账号互斥租约、共享的有界 worker 池。
type Engine struct {
	cfg    config.LimitsConfig
	store  *sqlite.Store
	pool   *proxy.Pool
	bus    *logbus.Bus
	runner Runner

	mu           sync.Mutex
	accountLocks map[string]chan struct{}
	tasks        map[string]*model.TaskState

	inFlight chan struct{}
	wg       sync.WaitGroup
}

func New(cfg config.LimitsConfig, store *sqlite.Store, pool *proxy.Pool, bus *logbus.Bus, runner Runner) *Engine {
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = 5
	}
	return &Engine{
		cfg:          cfg,
		store:        store,
		pool:         pool,
		bus:          bus,
		runner:       runner,
		accountLocks: make(map[string]chan struct{}),
		tasks:        make(map[string]*model.TaskState),
		inFlight:     make(chan struct{}, workers),
	}
}

// Wait 等所有在途任务结束，停服时用。
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) acquireInFlight(ctx context.Context) bool {
	select {
	case e.inFlight <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) releaseInFlight() {
	select {
	case <-e.inFlight:
	default:
	}
}

func (e *Engine) tryAcquireAccount(accountID string) bool {
	e.mu.Lock()
	lock := e.accountLocks[accountID]
	if lock == nil {
		lock = make(chan struct{}, 1)
		e.accountLocks[accountID] = lock
	}
	e.mu.Unlock()
	select {
	case lock <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *Engine) releaseAccount(accountID string) {
	e.mu.Lock()
	lock := e.accountLocks[accountID]
	e.mu.Unlock()
	if lock == nil {
		return
	}
	select {
	case <-lock:
	default:
	}
}

// RunBatch 对所有符合条件的账号触发 action。代理一次按 N 条要，
// 不够数就把已占的账号租约全放掉，一个状态都不改。
func (e *Engine) RunBatch(ctx context.Context, action Action) (model.BatchResult, error) {
	if !action.Valid() {
		return model.BatchResult{}, fmt.Errorf("engine: 未知动作 %q", action)
	}
	all, err := e.store.ListAccounts(ctx, "")
	if err != nil {
		return model.BatchResult{}, err
	}
	candidates := make([]model.Account, 0)
	for _, acc := range all {
		if !Eligible(action, acc) {
			continue
		}
		// 拿不到租约说明有任务在跑，批量里直接跳过
		if !e.tryAcquireAccount(acc.ID) {
			continue
		}
		candidates = append(candidates, acc)
	}
	if len(candidates) == 0 {
		return model.BatchResult{Message: "没有符合条件的账号"}, nil
	}

	leases, err := e.pool.Acquire(ctx, len(candidates))
	if err != nil {
		for _, acc := range candidates {
			e.releaseAccount(acc.ID)
		}
		if errors.Is(err, proxy.ErrInsufficient) {
			return model.BatchResult{
				Requested: len(candidates),
				Message:   "代理不足，本批全部不启动: " + err.Error(),
			}, err
		}
		return model.BatchResult{Requested: len(candidates)}, err
	}

	for i, acc := range candidates {
		e.submit(acc, action, leases[i])
	}
	return model.BatchResult{
		Requested: len(candidates),
		Started:   len(candidates),
		Message:   fmt.Sprintf("已入队 %d 个账号", len(candidates)),
	}, nil
}

// RunOne 对单个账号触发 action，是批量的 n=1 退化情形。
func (e *Engine) RunOne(ctx context.Context, accountID string, action Action) error {
	if !action.Valid() {
		return fmt.Errorf("engine: 未知动作 %q", action)
	}
	acc, ok, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("engine: 账号 %s 不存在", accountID)
	}
	// 先抢账号租约：任务一提交状态就变 queued/running，
	// 资格检查放在前面会把重复提交误报成状态错误。
	if !e.tryAcquireAccount(acc.ID) {
		return ErrAccountBusy
	}
	if !Eligible(action, acc) {
		e.releaseAccount(acc.ID)
		return fmt.Errorf("engine: 账号 %s 状态 %s 不能执行 %s", accountID, acc.State, action)
	}
	leases, err := e.pool.Acquire(ctx, 1)
	if err != nil {
		e.releaseAccount(acc.ID)
		return err
	}
	e.submit(acc, action, leases[0])
	return nil
}

// submit 前提：已持有账号租约、lease 已到手。
func (e *Engine) submit(acc model.Account, action Action, lease proxy.Lease) {
	ctx := context.Background()
	e.setState(ctx, acc.ID, string(action), model.StateQueued, "排队等待执行")
	e.trackTask(acc.ID, string(action))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.releaseAccount(acc.ID)
		defer e.pool.Release(lease)

		if !e.acquireInFlight(ctx) {
			return
		}
		defer e.releaseInFlight()

		e.setState(ctx, acc.ID, string(action), model.StateRunning, "任务开始")
		err := e.runSafely(ctx, action, acc, lease)
		if err != nil {
			e.setState(ctx, acc.ID, string(action), model.StateFailed, "error: "+err.Error())
			e.finishTask(acc.ID, false, err.Error())
			return
		}
		switch action {
		case ActionRegister:
			e.setState(ctx, acc.ID, string(action), model.StateRegistered, "注册完成")
		default:
			e.setState(ctx, acc.ID, string(action), model.StateRegistered, string(action)+" 完成")
		}
		e.finishTask(acc.ID, true, "")
	}()
}

// runSafely 是任务边界：Runner 里任何 panic 都折成 error，
// 不许带崩 worker 池。
func (e *Engine) runSafely(ctx context.Context, action Action, acc model.Account, lease proxy.Lease) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.runner.Run(ctx, action, acc, lease)
}

// setState 同时落库、写进度日志、推总线，三路保持一致。
func (e *Engine) setState(ctx context.Context, accountID, action string, state model.AccountState, msg string) {
	if err := e.store.SetAccountState(ctx, accountID, state, msg); err != nil {
		e.bus.Log("error", "写账号状态失败", map[string]any{"accountId": accountID, "err": err.Error()})
	}
	if _, err := e.store.AppendProgress(ctx, accountID, msg); err != nil {
		e.bus.Log("error", "写进度日志失败", map[string]any{"accountId": accountID, "err": err.Error()})
	}
	e.bus.Progress(accountID, action, msg)
}

func (e *Engine) trackTask(accountID, action string) {
	e.mu.Lock()
	e.tasks[accountID] = &model.TaskState{
		AccountID:   accountID,
		Action:      action,
		Running:     true,
		LastMessage: "排队等待执行",
		StartedAtMs: time.Now().UnixMilli(),
	}
	e.mu.Unlock()
}

func (e *Engine) finishTask(accountID string, ok bool, errMsg string) {
	e.mu.Lock()
	if st := e.tasks[accountID]; st != nil {
		st.Running = false
		st.FinishedAtMs = time.Now().UnixMilli()
		if ok {
			st.LastSuccessMs = st.FinishedAtMs
			st.LastMessage = "任务完成"
		} else {
			st.LastError = errMsg
			st.LastMessage = "error: " + errMsg
		}
	}
	e.mu.Unlock()
}

func (e *Engine) State() model.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	tasks := make([]model.TaskState, 0, len(e.tasks))
	for _, st := range e.tasks {
		tasks = append(tasks, *st)
	}
	return model.EngineState{
		Workers:  cap(e.inFlight),
		InFlight: len(e.inFlight),
		Tasks:    tasks,
	}
}
