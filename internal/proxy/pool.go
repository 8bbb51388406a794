package proxy

import (
	"context"
	"sync"
)

// Pool 在客户端前面挂一层回收池：任务跑完归还的租约优先复用，
// 不够的差额才去行情端买新的。
type Pool struct {
	mu     sync.Mutex
	free   []Lease
	client *Client
}

func NewPool(client *Client) *Pool {
	return &Pool{client: client}
}

// Acquire 取 num 条租约。行情端不足时返回 ErrInsufficient，
// 已经从池里拿出来的部分会放回去，不会丢。
func (p *Pool) Acquire(ctx context.Context, num int) ([]Lease, error) {
	if num <= 0 {
		return nil, nil
	}
	p.mu.Lock()
	reused := min(num, len(p.free))
	leases := make([]Lease, reused, num)
	copy(leases, p.free[len(p.free)-reused:])
	p.free = p.free[:len(p.free)-reused]
	p.mu.Unlock()

	missing := num - reused
	if missing == 0 {
		return leases, nil
	}
	fresh, err := p.client.Fetch(ctx, missing)
	if err != nil {
		p.Release(leases...)
		return nil, err
	}
	return append(leases, fresh...), nil
}

func (p *Pool) Release(leases ...Lease) {
	if len(leases) == 0 {
		return
	}
	p.mu.Lock()
	p.free = append(p.free, leases...)
	p.mu.Unlock()
}

func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
