package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/haihvite/printiful-bot/internal/model"
)

const accountCols = `id, email, password, fullname, state, status_msg, profile_id, amount, address, city, region, zipcode, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (model.Account, error) {
	var (
		acc       model.Account
		state     string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&acc.ID, &acc.Email, &acc.Password, &acc.FullName, &state, &acc.StatusMsg,
		&acc.ProfileID, &acc.Amount, &acc.Address, &acc.City, &acc.Region, &acc.ZipCode,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Account{}, err
	}
	acc.State = model.AccountState(state)
	acc.CreatedAt = time.UnixMilli(createdAt)
	acc.UpdatedAt = time.UnixMilli(updatedAt)
	return acc, nil
}

func (s *Store) InsertAccount(ctx context.Context, acc model.Account) (model.Account, error) {
	if acc.Email == "" {
		return model.Account{}, errors.New("email is required")
	}
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.State == "" {
		acc.State = model.StateIdle
	}
	now := time.Now()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = now
	}
	acc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, acc.ID, acc.Email, acc.Password, acc.FullName, string(acc.State), acc.StatusMsg,
		acc.ProfileID, acc.Amount, acc.Address, acc.City, acc.Region, acc.ZipCode,
		acc.CreatedAt.UnixMilli(), acc.UpdatedAt.UnixMilli())
	if err != nil {
		return model.Account{}, err
	}
	return acc, nil
}

// UpsertAccountByProfileID 按 profile_id 合并导入行：已有行只补充凭据和地址，
// 不碰 state/status_msg。profile_id 为空的行永远走 Insert。
func (s *Store) UpsertAccountByProfileID(ctx context.Context, acc model.Account) (model.Account, bool, error) {
	if acc.ProfileID == "" {
		out, err := s.InsertAccount(ctx, acc)
		return out, true, err
	}
	existing, err := s.GetAccountByProfileID(ctx, acc.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			out, err := s.InsertAccount(ctx, acc)
			return out, true, err
		}
		return model.Account{}, false, err
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		UPDATE accounts SET email = ?, password = ?, fullname = ?, amount = ?,
			address = ?, city = ?, region = ?, zipcode = ?, updated_at = ?
		WHERE id = ?
	`, acc.Email, acc.Password, acc.FullName, acc.Amount,
		acc.Address, acc.City, acc.Region, acc.ZipCode, now.UnixMilli(), existing.ID)
	if err != nil {
		return model.Account{}, false, err
	}
	out, _, err := s.GetAccount(ctx, existing.ID)
	return out, false, err
}

func (s *Store) GetAccount(ctx context.Context, id string) (model.Account, bool, error) {
	acc, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT `+accountCols+` FROM accounts WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, false, nil
		}
		return model.Account{}, false, err
	}
	return acc, true, nil
}

func (s *Store) GetAccountByProfileID(ctx context.Context, profileID string) (model.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, `
		SELECT `+accountCols+` FROM accounts WHERE profile_id = ? ORDER BY created_at LIMIT 1
	`, profileID))
}

func (s *Store) ListAccounts(ctx context.Context, state model.AccountState) ([]model.Account, error) {
	query := `SELECT ` + accountCols + ` FROM accounts ORDER BY created_at`
	args := []any{}
	if state != "" {
		query = `SELECT ` + accountCols + ` FROM accounts WHERE state = ? ORDER BY created_at`
		args = append(args, string(state))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) SetAccountState(ctx context.Context, id string, state model.AccountState, statusMsg string) error {
	if !state.Valid() {
		return errors.New("invalid account state: " + string(state))
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET state = ?, status_msg = ?, updated_at = ? WHERE id = ?
	`, string(state), statusMsg, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetAccountProfileID 只在 profile_id 还是空串时写入，账号和 profile 的绑定
// 一旦建立就不再改变。
func (s *Store) SetAccountProfileID(ctx context.Context, id, profileID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET profile_id = ?, updated_at = ? WHERE id = ? AND profile_id = ''
	`, profileID, time.Now().UnixMilli(), id)
	return err
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress_log WHERE account_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}
