package engine

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/haihvite/printiful-bot/internal/model"
)

var exportHeader = []string{"profile_id", "email", "password", "fullname", "amount", "address", "city", "state", "zipcode"}

func exportRecord(acc model.Account) []string {
	return []string{
		acc.ProfileID, acc.Email, acc.Password, acc.FullName,
		acc.Amount, acc.Address, acc.City, acc.Region, acc.ZipCode,
	}
}

// ExportRegisteredCSV 只导出已注册账号。
func (e *Engine) ExportRegisteredCSV(ctx context.Context, w io.Writer) error {
	accounts, err := e.store.ListAccounts(ctx, model.StateRegistered)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, acc := range accounts {
		if err := cw.Write(exportRecord(acc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// appendRegisteredCSV 在注册成功当场把账号追加到落盘文件，
// 进程崩了也不丢已经注册出来的号。
func appendRegisteredCSV(path string, acc model.Account) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if os.IsNotExist(statErr) {
		if err := cw.Write(exportHeader); err != nil {
			return err
		}
	}
	if err := cw.Write(exportRecord(acc)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
