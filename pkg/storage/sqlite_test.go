package storage

import (
	"os"
	"testing"
	"time"

	"gochat/pkg/errors"
	"gochat/pkg/protocol"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	tmpFile := t.TempDir() + "/test.db"
	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile)
	})
	return store
}

func TestAppendAndConversation(t *testing.T) {
	store := newTestStore(t)

	first := protocol.NewMessage("u1", "u2", "hello", "")
	second := protocol.NewMessage("u2", "u1", "hi back", "")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	if err := store.AppendMessage(first); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if err := store.AppendMessage(second); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msgs, err := store.Conversation("u1", "u2")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hello" || msgs[1].Text != "hi back" {
		t.Errorf("messages out of order: %q, %q", msgs[0].Text, msgs[1].Text)
	}
}

func TestConversationIsSymmetric(t *testing.T) {
	store := newTestStore(t)

	if err := store.AppendMessage(protocol.NewMessage("u1", "u2", "hello", "")); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	forward, err := store.Conversation("u1", "u2")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	reverse, err := store.Conversation("u2", "u1")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(forward) != 1 || len(reverse) != 1 {
		t.Errorf("both directions should see the message: %d, %d", len(forward), len(reverse))
	}
}

func TestConversationExcludesThirdParties(t *testing.T) {
	store := newTestStore(t)

	store.AppendMessage(protocol.NewMessage("u1", "u2", "between us", ""))
	store.AppendMessage(protocol.NewMessage("u1", "u3", "different thread", ""))
	store.AppendMessage(protocol.NewMessage("u3", "u2", "also different", ""))

	msgs, err := store.Conversation("u1", "u2")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Text != "between us" {
		t.Errorf("wrong message leaked in: %q", msgs[0].Text)
	}
}

func TestConversationEmpty(t *testing.T) {
	store := newTestStore(t)

	msgs, err := store.Conversation("u1", "u2")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
}

func TestAppendMessageAssignsID(t *testing.T) {
	store := newTestStore(t)

	msg := &protocol.Message{Sender: "u1", Recipient: "u2", Text: "hi"}
	if err := store.AppendMessage(msg); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if msg.ID == "" {
		t.Error("id should be assigned on append")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("creation time should be assigned on append")
	}
}

func TestMessageWithFile(t *testing.T) {
	store := newTestStore(t)

	store.AppendMessage(protocol.NewMessage("u1", "u2", "look", "1700000000000.png"))

	msgs, err := store.Conversation("u1", "u2")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if msgs[0].File != "1700000000000.png" {
		t.Errorf("file reference lost: %q", msgs[0].File)
	}
}

func TestUserLifecycle(t *testing.T) {
	store := newTestStore(t)

	user := &User{Username: "alice", PasswordHash: "hash"}
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == "" {
		t.Error("user id should be assigned")
	}

	byName, err := store.GetUserByName("alice")
	if err != nil {
		t.Fatalf("GetUserByName failed: %v", err)
	}
	if byName.ID != user.ID {
		t.Errorf("lookup mismatch: %s vs %s", byName.ID, user.ID)
	}

	byID, err := store.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("unexpected username: %s", byID.Username)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser(&User{Username: "alice", PasswordHash: "h1"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(&User{Username: "alice", PasswordHash: "h2"}); err != errors.ErrUserExists {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetUserByName("ghost"); err != errors.ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.GetUser("no-such-id"); err != errors.ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	store := newTestStore(t)

	store.CreateUser(&User{Username: "bob", PasswordHash: "h"})
	store.CreateUser(&User{Username: "alice", PasswordHash: "h"})

	users, err := store.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Username != "alice" || users[1].Username != "bob" {
		t.Errorf("users not ordered by name: %s, %s", users[0].Username, users[1].Username)
	}
}
