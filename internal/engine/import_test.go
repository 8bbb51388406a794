package engine

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haihvite/printiful-bot/internal/config"
	"github.com/haihvite/printiful-bot/internal/logbus"
	"github.com/haihvite/printiful-bot/internal/model"
	"github.com/haihvite/printiful-bot/internal/store/sqlite"
)

func newImportEngine(t *testing.T) (*Engine, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	bus := logbus.New(50)
	t.Cleanup(bus.Close)
	return New(config.LimitsConfig{MaxWorkers: 2}, store, nil, bus, nil), store
}

func TestImportRegisterSkipsShortLines(t *testing.T) {
	e, store := newImportEngine(t)
	ctx := context.Background()

	data := strings.Join([]string{
		"a@x.com|pw1|Alice",
		"broken-line",
		"b@x.com|pw2",
		"c@x.com|pw3|Carol",
		"",
	}, "\n")
	res, err := e.Import(ctx, ImportRegister, data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 2 {
		t.Fatalf("想要 inserted=2 skipped=2，实得 %+v", res)
	}

	all, _ := store.ListAccounts(ctx, "")
	if len(all) != 2 {
		t.Fatalf("想要 2 行，实得 %d", len(all))
	}
	for _, acc := range all {
		if acc.State != model.StateIdle {
			t.Fatalf("新导入账号应当是 idle: %s", acc.State)
		}
	}
}

func TestImportRegisterTwiceMakesTwoRowsEach(t *testing.T) {
	e, store := newImportEngine(t)
	ctx := context.Background()

	// 同一批导两遍就是两份账号，不做去重，这里钉死
	for i := 0; i < 2; i++ {
		if _, err := e.Import(ctx, ImportRegister, "a@x.com|pw1|Alice"); err != nil {
			t.Fatalf("第 %d 次导入: %v", i+1, err)
		}
	}
	all, _ := store.ListAccounts(ctx, "")
	if len(all) != 2 {
		t.Fatalf("想要 2 行，实得 %d", len(all))
	}
}

func TestImportDepositRejectsWrongFieldCount(t *testing.T) {
	e, store := newImportEngine(t)
	ctx := context.Background()

	// 第二行只有 4 个字段，整个请求必须拒绝，第一行也不许写进去
	data := "p-1|a@x.com|pw1|Alice|25\np-2|b@x.com|pw2|Bob"
	if _, err := e.Import(ctx, ImportDeposit, data); err == nil {
		t.Fatal("字段数不对应当拒绝")
	}
	all, _ := store.ListAccounts(ctx, "")
	if len(all) != 0 {
		t.Fatalf("拒绝的请求不许写库，实写 %d 行", len(all))
	}
}

func TestImportDepositUpsertsByProfileID(t *testing.T) {
	e, store := newImportEngine(t)
	ctx := context.Background()

	if _, err := e.Import(ctx, ImportDeposit, "p-1|a@x.com|pw1|Alice|25"); err != nil {
		t.Fatalf("首次导入: %v", err)
	}
	res, err := e.Import(ctx, ImportDeposit, "p-1|a@x.com|pw1|Alice|80")
	if err != nil {
		t.Fatalf("二次导入: %v", err)
	}
	if res.Updated != 1 || res.Inserted != 0 {
		t.Fatalf("想要 updated=1，实得 %+v", res)
	}

	all, _ := store.ListAccounts(ctx, "")
	if len(all) != 1 || all[0].Amount != "80" {
		t.Fatalf("应当按 profile_id 合并并更新金额: %+v", all)
	}
}

func TestImportBillingNeedsEightFields(t *testing.T) {
	e, store := newImportEngine(t)
	ctx := context.Background()

	ok := "p-1|a@x.com|pw1|Alice|1 Main St|Austin|TX|73301"
	res, err := e.Import(ctx, ImportBilling, ok)
	if err != nil {
		t.Fatalf("导入: %v", err)
	}
	if res.Inserted != 1 {
		t.Fatalf("想要 inserted=1，实得 %+v", res)
	}
	all, _ := store.ListAccounts(ctx, "")
	if all[0].City != "Austin" || all[0].Region != "TX" || all[0].ZipCode != "73301" {
		t.Fatalf("地址字段没拆对: %+v", all[0])
	}

	if _, err := e.Import(ctx, ImportBilling, "p-2|b@x.com|pw|Bob|addr|city"); err == nil {
		t.Fatal("6 个字段应当拒绝")
	}
}

func TestImportUnknownKind(t *testing.T) {
	e, _ := newImportEngine(t)
	if _, err := e.Import(context.Background(), ImportKind("exploded"), "x"); err == nil {
		t.Fatal("未知导入类型应当报错")
	}
}
