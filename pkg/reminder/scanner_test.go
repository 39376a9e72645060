package reminder

import (
	"errors"
	"strings"
	"testing"
	"time"

	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/models"
	"smart-neighborhood-backend/pkg/notify"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 8, 0, 0, 0, time.UTC)
}

func setupScanner(t *testing.T, db database.DatabaseInterface) *Scanner {
	t.Helper()
	return NewScanner(db, notify.NewEmitter(db), 1)
}

func createUser(t *testing.T, db database.DatabaseInterface, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "User", Email: email, Password: "hash"}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestScanSendsReminderOnceForGoverningDate(t *testing.T) {
	db := database.NewLocalDatabase()
	scanner := setupScanner(t, db)
	user := createUser(t, db, "alice@example.com")

	r := &models.Resource{UserID: user.ID, Title: "Ladder", Availability: "2024-11-10"}
	if err := db.CreateResource(r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if _, err := db.CreateBooking(user.ID, models.KindResource, r.ID, "2024-11-10"); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// 提前一天扫描，正好命中
	summary := scanner.Scan(date(2024, time.November, 9))
	if summary.Sent != 1 || summary.Failed != 0 {
		t.Fatalf("expected 1 sent, got %+v", summary)
	}

	inbox, err := db.ListMessagesForUser(user.ID)
	if err != nil {
		t.Fatalf("ListMessagesForUser: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 reminder message, got %d", len(inbox))
	}
	want := "Reminder: Your resource booking 'Ladder' is scheduled for 2024-11-10."
	if inbox[0].Content != want {
		t.Fatalf("content = %q, want %q", inbox[0].Content, want)
	}
	if !inbox[0].IsSystem {
		t.Fatal("reminder should be a system message")
	}

	// 同一天再扫：去重标记挡住，不重发
	summary = scanner.Scan(date(2024, time.November, 9))
	if summary.Sent != 0 || summary.Skipped != 1 {
		t.Fatalf("second scan should skip, got %+v", summary)
	}
	inbox, _ = db.ListMessagesForUser(user.ID)
	if len(inbox) != 1 {
		t.Fatalf("expected still 1 message, got %d", len(inbox))
	}
}

func TestScanTooEarlyAndTooLate(t *testing.T) {
	db := database.NewLocalDatabase()
	scanner := setupScanner(t, db)
	user := createUser(t, db, "alice@example.com")

	e := &models.Event{Name: "Street fair", Date: "2024-11-10", Location: "Main St", HostedBy: user.ID}
	if err := db.CreateEvent(e); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := db.CreateBooking(user.ID, models.KindEvent, e.ID, "2024-11-10"); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// 提前两天不发，当天也不发（只在恰好提前 horizon 天时发）
	for _, asOf := range []time.Time{date(2024, time.November, 8), date(2024, time.November, 10)} {
		summary := scanner.Scan(asOf)
		if summary.Sent != 0 {
			t.Fatalf("scan at %s should send nothing, got %+v", asOf.Format(models.DateLayout), summary)
		}
	}
}

func TestScanFollowsEditedGoverningDate(t *testing.T) {
	db := database.NewLocalDatabase()
	scanner := setupScanner(t, db)
	user := createUser(t, db, "alice@example.com")

	r := &models.Resource{UserID: user.ID, Title: "Ladder", Availability: "2024-11-10"}
	if err := db.CreateResource(r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if _, err := db.CreateBooking(user.ID, models.KindResource, r.ID, "2024-11-10"); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if summary := scanner.Scan(date(2024, time.November, 9)); summary.Sent != 1 {
		t.Fatalf("first reminder: %+v", summary)
	}

	// 日期后移：旧日期前夜不再触发，新日期前夜再发一条
	if err := db.UpdateResourceAvailability(r.ID, "2024-11-20"); err != nil {
		t.Fatalf("UpdateResourceAvailability: %v", err)
	}

	if summary := scanner.Scan(date(2024, time.November, 9)); summary.Sent != 0 {
		t.Fatalf("old eve after edit should send nothing: %+v", summary)
	}
	if summary := scanner.Scan(date(2024, time.November, 19)); summary.Sent != 1 {
		t.Fatalf("new eve should send one reminder: %+v", summary)
	}

	inbox, _ := db.ListMessagesForUser(user.ID)
	if len(inbox) != 2 {
		t.Fatalf("expected 2 reminders total, got %d", len(inbox))
	}
	if !strings.Contains(inbox[0].Content, "2024-11-20") {
		t.Fatalf("latest reminder should carry the new date: %q", inbox[0].Content)
	}
}

func TestScanMissingReceiverDoesNotAbort(t *testing.T) {
	db := database.NewLocalDatabase()
	scanner := setupScanner(t, db)
	gone := createUser(t, db, "gone@example.com")
	alive := createUser(t, db, "alive@example.com")

	r := &models.Resource{UserID: alive.ID, Title: "Ladder", Availability: "2024-11-10"}
	if err := db.CreateResource(r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if _, err := db.CreateBooking(gone.ID, models.KindResource, r.ID, "2024-11-10"); err != nil {
		t.Fatalf("booking for gone user: %v", err)
	}
	if _, err := db.CreateBooking(alive.ID, models.KindResource, r.ID, "2024-11-10"); err != nil {
		t.Fatalf("booking for alive user: %v", err)
	}

	db.(*database.LocalDatabase).DeleteUser(gone.ID)

	summary := scanner.Scan(date(2024, time.November, 9))
	if summary.Sent != 1 || summary.Failed != 1 {
		t.Fatalf("expected 1 sent and 1 failed, got %+v", summary)
	}

	inbox, _ := db.ListMessagesForUser(alive.ID)
	if len(inbox) != 1 {
		t.Fatalf("alive user should still get the reminder, got %d messages", len(inbox))
	}

	// 接收者永久消失：标记保留，下一轮不再空转重试
	summary = scanner.Scan(date(2024, time.November, 9))
	if summary.Failed != 0 || summary.Sent != 0 || summary.Skipped != 2 {
		t.Fatalf("second scan should skip both, got %+v", summary)
	}
}

// flakySendDB 第一次写系统消息失败，之后恢复正常
type flakySendDB struct {
	database.DatabaseInterface
	failures int
}

func (db *flakySendDB) CreateSystemMessage(receiverID int64, content string) (*models.Message, error) {
	if db.failures > 0 {
		db.failures--
		return nil, errors.New("connection reset")
	}
	return db.DatabaseInterface.CreateSystemMessage(receiverID, content)
}

func TestScanRetriesAfterTransientSendFailure(t *testing.T) {
	inner := database.NewLocalDatabase()
	db := &flakySendDB{DatabaseInterface: inner, failures: 1}
	scanner := setupScanner(t, db)
	user := createUser(t, inner, "alice@example.com")

	r := &models.Resource{UserID: user.ID, Title: "Ladder", Availability: "2024-11-10"}
	if err := inner.CreateResource(r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if _, err := inner.CreateBooking(user.ID, models.KindResource, r.ID, "2024-11-10"); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// 第一轮发送失败：标记被回收
	summary := scanner.Scan(date(2024, time.November, 9))
	if summary.Failed != 1 || summary.Sent != 0 {
		t.Fatalf("expected transient failure, got %+v", summary)
	}

	// 第二轮成功补发
	summary = scanner.Scan(date(2024, time.November, 9))
	if summary.Sent != 1 || summary.Failed != 0 {
		t.Fatalf("expected retry to succeed, got %+v", summary)
	}

	inbox, _ := inner.ListMessagesForUser(user.ID)
	if len(inbox) != 1 {
		t.Fatalf("expected exactly 1 message after retry, got %d", len(inbox))
	}
}

func TestScanCoversAllKinds(t *testing.T) {
	db := database.NewLocalDatabase()
	scanner := setupScanner(t, db)
	user := createUser(t, db, "alice@example.com")

	r := &models.Resource{UserID: user.ID, Title: "Ladder", Availability: "2024-11-10"}
	s := &models.Space{Name: "Garage", Availability: "2024-11-10", CreatedBy: user.ID}
	e := &models.Event{Name: "Street fair", Date: "2024-11-10", Location: "Main St", HostedBy: user.ID}
	if err := db.CreateResource(r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if err := db.CreateSpace(s); err != nil {
		t.Fatalf("CreateSpace: %v", err)
	}
	if err := db.CreateEvent(e); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	for kind, id := range map[models.Kind]int64{
		models.KindResource: r.ID,
		models.KindSpace:    s.ID,
		models.KindEvent:    e.ID,
	} {
		if _, err := db.CreateBooking(user.ID, kind, id, "2024-11-10"); err != nil {
			t.Fatalf("CreateBooking %s: %v", kind, err)
		}
	}

	summary := scanner.Scan(date(2024, time.November, 9))
	if summary.Sent != 3 {
		t.Fatalf("expected reminders for all three kinds, got %+v", summary)
	}

	inbox, _ := db.ListMessagesForUser(user.ID)
	var labels []string
	for _, m := range inbox {
		labels = append(labels, m.Content)
	}
	joined := strings.Join(labels, "\n")
	for _, want := range []string{"resource booking 'Ladder'", "space booking 'Garage'", "event 'Street fair'"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing reminder for %s in:\n%s", want, joined)
		}
	}
}
