package database

import (
	"errors"
	"testing"

	"smart-neighborhood-backend/pkg/models"
)

func newTestDB(t *testing.T) (*LocalDatabase, *models.User) {
	t.Helper()
	db := NewLocalDatabase().(*LocalDatabase)
	user := &models.User{Name: "Alice", Email: "alice@example.com", Password: "hash"}
	if err := db.CreateUser(user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return db, user
}

func addResource(t *testing.T, db *LocalDatabase, ownerID int64, title, availability string) *models.Resource {
	t.Helper()
	r := &models.Resource{UserID: ownerID, Title: title, Availability: availability}
	if err := db.CreateResource(r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	return r
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, user := newTestDB(t)

	dup := &models.User{Name: "Other", Email: user.Email, Password: "hash"}
	if err := db.CreateUser(dup); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateBookingDuplicate(t *testing.T) {
	db, user := newTestDB(t)
	r := addResource(t, db, user.ID, "Ladder", "2024-11-10")

	b, err := db.CreateBooking(user.ID, models.KindResource, r.ID, "2024-11-10")
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("expected booking to get an id")
	}

	if _, err := db.CreateBooking(user.ID, models.KindResource, r.ID, "2024-11-10"); !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}

	// 同一用户预订另一个资源不受影响
	r2 := addResource(t, db, user.ID, "Drill", "2024-11-12")
	if _, err := db.CreateBooking(user.ID, models.KindResource, r2.ID, "2024-11-12"); err != nil {
		t.Fatalf("booking another resource: %v", err)
	}
}

func TestCreateBookingMissingEntity(t *testing.T) {
	db, user := newTestDB(t)

	if _, err := db.CreateBooking(user.ID, models.KindEvent, 42, "2024-11-10"); !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestCancelBookingOwnership(t *testing.T) {
	db, user := newTestDB(t)
	other := &models.User{Name: "Bob", Email: "bob@example.com", Password: "hash"}
	if err := db.CreateUser(other); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	r := addResource(t, db, user.ID, "Ladder", "2024-11-10")
	b, err := db.CreateBooking(user.ID, models.KindResource, r.ID, "2024-11-10")
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// 他人取消与不存在的预订一样返回 ErrNotFound
	if err := db.CancelBooking(b.ID, other.ID, models.KindResource); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign booking, got %v", err)
	}
	if err := db.CancelBooking(b.ID, user.ID, models.KindResource); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if err := db.CancelBooking(b.ID, user.ID, models.KindResource); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cancel, got %v", err)
	}
}

func TestListDueBookingsReadsEntityDate(t *testing.T) {
	db, user := newTestDB(t)
	r := addResource(t, db, user.ID, "Ladder", "2024-11-10")
	if _, err := db.CreateBooking(user.ID, models.KindResource, r.ID, "2024-11-10"); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	due, err := db.ListDueBookings(models.KindResource, "2024-11-10")
	if err != nil {
		t.Fatalf("ListDueBookings: %v", err)
	}
	if len(due) != 1 || due[0].GoverningDate != "2024-11-10" {
		t.Fatalf("expected one due booking on 2024-11-10, got %+v", due)
	}

	// 实体日期改了，到期判定要跟着实体当前日期走，不看 booking_date
	if err := db.UpdateResourceAvailability(r.ID, "2024-11-20"); err != nil {
		t.Fatalf("UpdateResourceAvailability: %v", err)
	}

	due, err = db.ListDueBookings(models.KindResource, "2024-11-10")
	if err != nil {
		t.Fatalf("ListDueBookings: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no due bookings on the old date, got %+v", due)
	}

	due, err = db.ListDueBookings(models.KindResource, "2024-11-20")
	if err != nil {
		t.Fatalf("ListDueBookings: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected one due booking on the new date, got %+v", due)
	}
}

func TestReminderMarkers(t *testing.T) {
	db, _ := newTestDB(t)

	fresh, err := db.MarkReminderSent(models.KindEvent, 7, "2024-11-10")
	if err != nil {
		t.Fatalf("MarkReminderSent: %v", err)
	}
	if !fresh {
		t.Fatal("first mark should be fresh")
	}

	fresh, err = db.MarkReminderSent(models.KindEvent, 7, "2024-11-10")
	if err != nil {
		t.Fatalf("MarkReminderSent: %v", err)
	}
	if fresh {
		t.Fatal("second mark for the same key should not be fresh")
	}

	// 不同生效日期是另一条标记
	fresh, err = db.MarkReminderSent(models.KindEvent, 7, "2024-11-20")
	if err != nil {
		t.Fatalf("MarkReminderSent: %v", err)
	}
	if !fresh {
		t.Fatal("mark for a new governing date should be fresh")
	}

	if err := db.UnmarkReminderSent(models.KindEvent, 7, "2024-11-10"); err != nil {
		t.Fatalf("UnmarkReminderSent: %v", err)
	}
	fresh, err = db.MarkReminderSent(models.KindEvent, 7, "2024-11-10")
	if err != nil {
		t.Fatalf("MarkReminderSent: %v", err)
	}
	if !fresh {
		t.Fatal("mark after unmark should be fresh again")
	}
}

func TestMessagesInboxOrder(t *testing.T) {
	db, user := newTestDB(t)

	first, err := db.CreateSystemMessage(user.ID, "first")
	if err != nil {
		t.Fatalf("CreateSystemMessage: %v", err)
	}
	second, err := db.CreateSystemMessage(user.ID, "second")
	if err != nil {
		t.Fatalf("CreateSystemMessage: %v", err)
	}

	inbox, err := db.ListMessagesForUser(user.ID)
	if err != nil {
		t.Fatalf("ListMessagesForUser: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(inbox))
	}
	// 倒序：后发的在前
	if inbox[0].ID != second.ID || inbox[1].ID != first.ID {
		t.Fatalf("expected newest first, got ids %d, %d", inbox[0].ID, inbox[1].ID)
	}
	if !inbox[0].IsSystem || inbox[0].SenderID != nil {
		t.Fatalf("system message should have no sender: %+v", inbox[0])
	}
}

func TestCreateMessageMissingReceiver(t *testing.T) {
	db, _ := newTestDB(t)

	if _, err := db.CreateSystemMessage(999, "hello"); !errors.Is(err, ErrReceiverNotFound) {
		t.Fatalf("expected ErrReceiverNotFound, got %v", err)
	}
	if _, err := db.CreateUserMessage(1, 999, "hello"); !errors.Is(err, ErrReceiverNotFound) {
		t.Fatalf("expected ErrReceiverNotFound, got %v", err)
	}
}
