package reminder

import (
	"sync/atomic"
	"testing"
	"time"

	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/models"
	"smart-neighborhood-backend/pkg/notify"
)

// blockingDB 第一轮扫描卡在查询上，用来验证 tick 跳过逻辑
type blockingDB struct {
	database.DatabaseInterface
	scans   atomic.Int32
	release chan struct{}
}

func (db *blockingDB) ListDueBookings(kind models.Kind, dueDate string) ([]models.DueBooking, error) {
	if kind == models.KindResource {
		db.scans.Add(1)
	}
	<-db.release
	return []models.DueBooking{}, nil
}

func TestSchedulerSkipsTickWhileScanRunning(t *testing.T) {
	db := &blockingDB{DatabaseInterface: database.NewLocalDatabase(), release: make(chan struct{})}
	scanner := NewScanner(db, notify.NewEmitter(db), 1)
	scheduler := NewScheduler(scanner, 5*time.Millisecond)

	scheduler.Start()

	// 多个tick周期过去，第一轮还卡着，不允许并发开新一轮
	time.Sleep(60 * time.Millisecond)
	if got := db.scans.Load(); got != 1 {
		t.Fatalf("expected exactly 1 scan while busy, got %d", got)
	}

	close(db.release)
	scheduler.Stop()
}

// panicDB 每轮扫描都panic
type panicDB struct {
	database.DatabaseInterface
	scans atomic.Int32
}

func (db *panicDB) ListDueBookings(kind models.Kind, dueDate string) ([]models.DueBooking, error) {
	db.scans.Add(1)
	panic("storage exploded")
}

func TestSchedulerSurvivesPanickingScan(t *testing.T) {
	db := &panicDB{DatabaseInterface: database.NewLocalDatabase()}
	scanner := NewScanner(db, notify.NewEmitter(db), 1)
	scheduler := NewScheduler(scanner, 5*time.Millisecond)

	scheduler.Start()

	// 第一轮panic后循环必须继续跑出后续轮次
	deadline := time.After(2 * time.Second)
	for db.scans.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("scheduler did not keep ticking after panics, scans=%d", db.scans.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	scheduler.Stop()
}

func TestSchedulerStop(t *testing.T) {
	db := database.NewLocalDatabase()
	scanner := NewScanner(db, notify.NewEmitter(db), 1)
	scheduler := NewScheduler(scanner, time.Hour)

	scheduler.Start()
	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	// 重复Stop与未启动Stop都应是安全的空操作
	scheduler.Stop()
	NewScheduler(scanner, time.Hour).Stop()
}
