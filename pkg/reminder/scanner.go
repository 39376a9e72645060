package reminder

import (
	"errors"
	"fmt"
	"time"

	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/models"
	"smart-neighborhood-backend/pkg/notify"
	"smart-neighborhood-backend/pkg/zlog"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scanner 提醒扫描器：找出即将到期的预订并发送提醒。
//
// 到期判定：实体当前生效日期 == asOf + horizonDays（整日匹配）。
// 再叠加落盘的去重标记，保证同一 (预订, 生效日期) 至多发一条提醒，
// 同一天内反复扫描、进程重启后重扫都不会重发
type Scanner struct {
	db          database.DatabaseInterface
	emitter     *notify.Emitter
	horizonDays int
}

// NewScanner 创建扫描器。horizonDays 不合法时退回默认1天（提前一天提醒）
func NewScanner(db database.DatabaseInterface, emitter *notify.Emitter, horizonDays int) *Scanner {
	if horizonDays < 1 {
		horizonDays = 1
	}
	return &Scanner{db: db, emitter: emitter, horizonDays: horizonDays}
}

// Summary 单次扫描的结果统计
type Summary struct {
	RunID   string `json:"run_id"`
	AsOf    string `json:"as_of"`
	DueDate string `json:"due_date"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"` // 去重标记已存在，未重发
	Failed  int    `json:"failed"`
}

// Scan 执行一轮完整扫描：三种实体类型依次处理。
// 单条提醒失败只计数并记日志，绝不中断整轮扫描
func (s *Scanner) Scan(asOf time.Time) Summary {
	summary := Summary{
		RunID:   uuid.New().String(),
		AsOf:    asOf.Format(models.DateLayout),
		DueDate: asOf.AddDate(0, 0, s.horizonDays).Format(models.DateLayout),
	}

	for _, kind := range models.AllKinds {
		due, err := s.db.ListDueBookings(kind, summary.DueDate)
		if err != nil {
			// 这一类查询失败，下个周期重试，先扫完其余类型
			summary.Failed++
			zlog.Error("reminder scan: list due bookings failed",
				zap.String("run_id", summary.RunID),
				zap.String("kind", string(kind)),
				zap.Error(err))
			continue
		}

		for _, d := range due {
			s.remind(kind, d, &summary)
		}
	}

	zlog.Info("reminder scan finished",
		zap.String("run_id", summary.RunID),
		zap.String("due_date", summary.DueDate),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary
}

// remind 处理单条到期预订：先落去重标记，标记成功才发送
func (s *Scanner) remind(kind models.Kind, d models.DueBooking, summary *Summary) {
	fresh, err := s.db.MarkReminderSent(kind, d.ID, d.GoverningDate)
	if err != nil {
		summary.Failed++
		zlog.Error("reminder scan: mark failed",
			zap.String("run_id", summary.RunID),
			zap.String("kind", string(kind)),
			zap.Int64("booking_id", d.ID),
			zap.Error(err))
		return
	}
	if !fresh {
		// 这条 (预订, 生效日期) 已经提醒过
		summary.Skipped++
		return
	}

	content := reminderContent(kind, d.DisplayName, d.GoverningDate)
	if _, err := s.emitter.SendSystemMessage(d.UserID, content); err != nil {
		summary.Failed++
		zlog.Error("reminder scan: send failed",
			zap.String("run_id", summary.RunID),
			zap.String("kind", string(kind)),
			zap.Int64("booking_id", d.ID),
			zap.Int64("receiver_id", d.UserID),
			zap.Error(err))
		// 接收者已注销属于永久失败，标记留着避免每轮空转；
		// 其余失败视为暂时性，回收标记让下个周期重试
		if !errors.Is(err, database.ErrReceiverNotFound) {
			if unmarkErr := s.db.UnmarkReminderSent(kind, d.ID, d.GoverningDate); unmarkErr != nil {
				zlog.Error("reminder scan: unmark failed",
					zap.String("run_id", summary.RunID),
					zap.Int64("booking_id", d.ID),
					zap.Error(unmarkErr))
			}
		}
		return
	}

	summary.Sent++
}

// reminderContent 提醒文案，按类型取不同标签
func reminderContent(kind models.Kind, displayName, date string) string {
	return fmt.Sprintf("Reminder: Your %s '%s' is scheduled for %s.", kind.Label(), displayName, date)
}
