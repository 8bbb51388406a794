package sqlite

import (
	"context"
	"time"

	"github.com/haihvite/printiful-bot/internal/model"
)

// 进度日志只追加不修改，面板上看到的是账号的完整时间线。
func (s *Store) AppendProgress(ctx context.Context, accountID, message string) (model.ProgressEntry, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO progress_log (account_id, message, created_at) VALUES (?, ?, ?)
	`, accountID, message, now.UnixMilli())
	if err != nil {
		return model.ProgressEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ProgressEntry{}, err
	}
	return model.ProgressEntry{ID: id, AccountID: accountID, Message: message, CreatedAt: now}, nil
}

func (s *Store) ListProgress(ctx context.Context, accountID string, limit int) ([]model.ProgressEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, message, created_at FROM progress_log
		WHERE account_id = ? ORDER BY id DESC LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ProgressEntry, 0)
	for rows.Next() {
		var (
			e         model.ProgressEntry
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Message, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, e)
	}
	// 倒序取最近 N 条，再翻回时间正序
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}
