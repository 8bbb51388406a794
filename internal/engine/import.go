package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/haihvite/printiful-bot/internal/model"
)

// ImportKind 是导入文本的三种格式。
type ImportKind string

const (
	ImportRegister ImportKind = "register"
	ImportDeposit  ImportKind = "deposit"
	ImportBilling  ImportKind = "billing"
)

type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Import 解析竖线分隔的批量文本并写库。register 容忍坏行（跳过），
// deposit/billing 字段数不对就整个请求拒绝，一行都不写。
func (e *Engine) Import(ctx context.Context, kind ImportKind, data string) (ImportResult, error) {
	switch kind {
	case ImportRegister:
		return e.importRegister(ctx, data)
	case ImportDeposit:
		return e.importByProfile(ctx, data, 5, func(fields []string) model.Account {
			return model.Account{
				ProfileID: fields[0],
				Email:     fields[1],
				Password:  fields[2],
				FullName:  fields[3],
				Amount:    fields[4],
				State:     model.StateRegistered,
			}
		})
	case ImportBilling:
		return e.importByProfile(ctx, data, 8, func(fields []string) model.Account {
			return model.Account{
				ProfileID: fields[0],
				Email:     fields[1],
				Password:  fields[2],
				FullName:  fields[3],
				Address:   fields[4],
				City:      fields[5],
				Region:    fields[6],
				ZipCode:   fields[7],
				State:     model.StateRegistered,
			}
		})
	}
	return ImportResult{}, fmt.Errorf("engine: 未知导入类型 %q", kind)
}

func splitLines(data string) []string {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// importRegister: email|password|fullname，字段不足三个的行静默跳过。
func (e *Engine) importRegister(ctx context.Context, data string) (ImportResult, error) {
	var res ImportResult
	for _, line := range splitLines(data) {
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			res.Skipped++
			continue
		}
		acc := model.Account{
			Email:    strings.TrimSpace(fields[0]),
			Password: strings.TrimSpace(fields[1]),
			FullName: strings.TrimSpace(fields[2]),
			State:    model.StateIdle,
		}
		if _, err := e.store.InsertAccount(ctx, acc); err != nil {
			return res, err
		}
		res.Inserted++
	}
	return res, nil
}

// importByProfile 要求每行恰好 want 个字段，先整体校验再落库，
// 保证坏请求不会写进半批数据。
func (e *Engine) importByProfile(ctx context.Context, data string, want int, build func([]string) model.Account) (ImportResult, error) {
	lines := splitLines(data)
	parsed := make([][]string, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, "|")
		if len(fields) != want {
			return ImportResult{}, fmt.Errorf("engine: 第 %d 行需要 %d 个字段，实得 %d", i+1, want, len(fields))
		}
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		parsed = append(parsed, fields)
	}

	var res ImportResult
	for _, fields := range parsed {
		acc := build(fields)
		_, created, err := e.store.UpsertAccountByProfileID(ctx, acc)
		if err != nil {
			return res, err
		}
		if created {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
