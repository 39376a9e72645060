package reminder

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"smart-neighborhood-backend/pkg/zlog"

	"go.uber.org/zap"
)

// Scheduler 进程级定时器：按固定间隔触发一轮提醒扫描。
// 由组装根（cmd/server）持有并注入，不做包级单例。
// 上一轮还没扫完时新的tick直接跳过，不排队，也绝不并发跑两轮
type Scheduler struct {
	scanner  *Scanner
	interval time.Duration

	busy     atomic.Bool
	stopChan chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewScheduler 创建调度器。interval 不合法时退回30秒（原系统的测试间隔；
// 生产环境应配置为分钟到小时级，去重粒度是按天的）
func NewScheduler(scanner *Scanner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		scanner:  scanner,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动调度循环
func (s *Scheduler) Start() {
	if s.started {
		return
	}
	s.started = true

	go s.run()
	zlog.Info("reminder scheduler started", zap.Duration("interval", s.interval))
}

// Stop 停止调度循环并等待退出。未启动时为空操作
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.done
	zlog.Info("reminder scheduler stopped")
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			return
		}
	}
}

// tick 触发一轮扫描。busy 标志保证不会并发扫描：
// 抢不到就跳过本次tick。扫描放到独立goroutine里跑，
// 避免一轮慢扫描把停止信号也堵住
func (s *Scheduler) tick() {
	if !s.busy.CompareAndSwap(false, true) {
		zlog.Warn("reminder scan still running, tick skipped")
		return
	}

	go func() {
		defer s.busy.Store(false)
		// 单轮的panic不允许拖垮整个循环，兜住并等下个tick
		defer func() {
			if r := recover(); r != nil {
				zlog.Error("reminder scan panicked", zap.String("panic", fmt.Sprintf("%v", r)))
			}
		}()

		s.scanner.Scan(time.Now())
	}()
}
