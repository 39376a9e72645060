package notify

import (
	"errors"
	"testing"

	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/models"
)

func setup(t *testing.T) (*Emitter, database.DatabaseInterface, *models.User) {
	t.Helper()
	db := database.NewLocalDatabase()
	user := &models.User{Name: "Alice", Email: "alice@example.com", Password: "hash"}
	if err := db.CreateUser(user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return NewEmitter(db), db, user
}

func TestSendSystemMessage(t *testing.T) {
	emitter, db, user := setup(t)

	msg, err := emitter.SendSystemMessage(user.ID, "Reminder: something tomorrow")
	if err != nil {
		t.Fatalf("SendSystemMessage: %v", err)
	}
	if !msg.IsSystem || msg.SenderID != nil {
		t.Fatalf("system message should be senderless: %+v", msg)
	}

	inbox, err := db.ListMessagesForUser(user.ID)
	if err != nil {
		t.Fatalf("ListMessagesForUser: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 message in inbox, got %d", len(inbox))
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	emitter, _, user := setup(t)

	if _, err := emitter.SendSystemMessage(user.ID, "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := emitter.SendUserMessage(user.ID, user.ID, ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestSendToMissingReceiver(t *testing.T) {
	emitter, _, _ := setup(t)

	if _, err := emitter.SendSystemMessage(999, "hello"); !errors.Is(err, database.ErrReceiverNotFound) {
		t.Fatalf("expected ErrReceiverNotFound, got %v", err)
	}
}

func TestSendUserMessageKeepsSender(t *testing.T) {
	emitter, db, alice := setup(t)
	bob := &models.User{Name: "Bob", Email: "bob@example.com", Password: "hash"}
	if err := db.CreateUser(bob); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	msg, err := emitter.SendUserMessage(bob.ID, alice.ID, "Can I borrow the ladder?")
	if err != nil {
		t.Fatalf("SendUserMessage: %v", err)
	}
	if msg.IsSystem {
		t.Fatal("user message must not be flagged as system")
	}
	if msg.SenderID == nil || *msg.SenderID != bob.ID {
		t.Fatalf("expected sender %d, got %+v", bob.ID, msg.SenderID)
	}
}
