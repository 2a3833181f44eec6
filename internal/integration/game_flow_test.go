package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/repository"
	"tycoon_bot/internal/scheduler"
	"tycoon_bot/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests need a real Postgres; they skip without DATABASE_URL.

func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func createUser(t *testing.T, db *pgxpool.Pool, tgID, currency int64) *domain.User {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	// reset leftovers from previous runs
	_, _ = db.Exec(ctx, `DELETE FROM users WHERE tg_id = $1`, tgID)

	u := &domain.User{TgID: tgID, Username: "itest", FirstName: "Itest", Currency: currency}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, u.ID)
	})
	return u
}

func insertTask(t *testing.T, db *pgxpool.Pool, name string, reward, expReward int64, lvl int, cost, length int64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO user_tasks (name, reward, exp_reward, lvl_required, cost, length)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET reward = EXCLUDED.reward
		RETURNING id`,
		name, reward, expReward, lvl, cost, length,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return id
}

// The canonical flow: a prestige-1 player with 100000 starts a task costing
// 5000 (balance drops to 95000), and on completion collects 8000 currency
// and 50 experience (balance 103000).
func TestTaskFlowEndToEnd(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	u := createUser(t, db, 900001, 100000)
	taskID := insertTask(t, db, "itest flow task", 8000, 50, 1, 5000, 1)

	sched := scheduler.New(repository.NewJobRepository(db), 20*time.Millisecond)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sched.Run(runCtx)

	progression := service.NewProgressionService(db, 10_000_000)
	// 50ms ticks so the 1-tick task completes quickly
	tasks := service.NewTaskService(db, progression, sched, 50*time.Millisecond)

	outcomes := make(chan domain.TaskOutcome, 1)
	tasks.SetCompletionHandler(func(o domain.TaskOutcome) { outcomes <- o })

	// start with a request-scoped context and drop it straight away, the way
	// a disconnecting client would; the scheduled completion must not care
	reqCtx, cancelReq := context.WithCancel(ctx)
	result, err := tasks.StartTask(reqCtx, u.ID, taskID)
	cancelReq()
	if err != nil {
		t.Fatalf("start task: %v", err)
	}
	if result.Status != domain.StartOK {
		t.Fatalf("start status = %v", result.Status)
	}
	if result.NewBalance != 95000 {
		t.Fatalf("balance after start = %d, want 95000", result.NewBalance)
	}

	select {
	case o := <-outcomes:
		if o.RewardPaid != 8000 {
			t.Fatalf("reward paid = %d, want 8000", o.RewardPaid)
		}
		if o.XPAwarded != 50 {
			t.Fatalf("xp awarded = %d, want 50", o.XPAwarded)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("task never completed")
	}

	after, err := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if after.Currency != 103000 {
		t.Fatalf("final balance = %d, want 103000", after.Currency)
	}
	if after.XP != 50 {
		t.Fatalf("final xp = %d, want 50", after.XP)
	}
	if after.ActiveTaskID != nil {
		t.Fatal("assignment not cleared after completion")
	}
}

func TestStartTaskDeclinesInPriorityOrder(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	u := createUser(t, db, 900002, 100)
	taskID := insertTask(t, db, "itest pricey task", 8000, 50, 5, 5000, 1)

	sched := scheduler.New(repository.NewJobRepository(db), 20*time.Millisecond)
	progression := service.NewProgressionService(db, 10_000_000)
	tasks := service.NewTaskService(db, progression, sched, time.Minute)

	// broke AND underleveled: funds must win
	result, err := tasks.StartTask(ctx, u.ID, taskID)
	if err != nil {
		t.Fatalf("start task: %v", err)
	}
	if result.Status != domain.StartInsufficientFunds {
		t.Fatalf("status = %v, want insufficient funds", result.Status)
	}

	// rich but underleveled
	if _, err := db.Exec(ctx, `UPDATE users SET currency = 1000000 WHERE id = $1`, u.ID); err != nil {
		t.Fatal(err)
	}
	result, err = tasks.StartTask(ctx, u.ID, taskID)
	if err != nil {
		t.Fatalf("start task: %v", err)
	}
	if result.Status != domain.StartInsufficientLevel {
		t.Fatalf("status = %v, want insufficient level", result.Status)
	}
}

func TestPurchaseAndTick(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	u := createUser(t, db, 900003, 10000)

	var buildingID int64
	err := db.QueryRow(ctx, `
		INSERT INTO buildings (name, cost, income) VALUES ('itest stall', 999123, 100)
		ON CONFLICT (cost) DO UPDATE SET income = EXCLUDED.income
		RETURNING id`).Scan(&buildingID)
	if err != nil {
		t.Fatalf("insert building: %v", err)
	}
	// affordable copy of the catalog row
	if _, err := db.Exec(ctx, `UPDATE buildings SET cost = 1000 WHERE id = $1`, buildingID); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM buildings WHERE id = $1`, buildingID)
	})

	economy := service.NewEconomyService(db, time.Minute)

	result, err := economy.PurchaseBuilding(ctx, u.ID, buildingID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !result.Purchased || result.NewBalance != 9000 {
		t.Fatalf("purchase result = %+v", result)
	}

	if err := economy.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	after, err := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	// one building, income 100, prestige 1
	if after.Currency != 9100 {
		t.Fatalf("balance after tick = %d, want 9100", after.Currency)
	}

	// a second tick adds exactly one more tick's worth
	if err := economy.Tick(ctx); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	after, err = repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Currency != 9200 {
		t.Fatalf("balance after two ticks = %d, want 9200", after.Currency)
	}
}

func TestPrestigeResetsEmpire(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	u := createUser(t, db, 900004, 20_000_000)

	progression := service.NewProgressionService(db, 10_000_000)

	status, err := progression.PrestigeUp(ctx, u.ID)
	if err != nil {
		t.Fatalf("prestige up: %v", err)
	}
	if status.Prestige != 2 {
		t.Fatalf("prestige = %d, want 2", status.Prestige)
	}
	if status.Currency != 2000 {
		t.Fatalf("reset balance = %d, want 2000", status.Currency)
	}
	// next one is 2^2 * base
	if status.NextCost != 40_000_000 {
		t.Fatalf("next cost = %d, want 40000000", status.NextCost)
	}

	after, err := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Level != 1 || after.XP != 0 {
		t.Fatalf("level/xp not reset: %+v", after)
	}
}
