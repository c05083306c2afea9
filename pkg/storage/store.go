package storage

import (
	"time"

	"gochat/pkg/protocol"
)

// User represents a registered account
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Store defines the interface for persistent storage operations
type Store interface {
	// Message history operations
	AppendMessage(msg *protocol.Message) error
	Conversation(userA, userB string) ([]*protocol.Message, error)

	// User account operations
	CreateUser(user *User) error
	GetUserByName(username string) (*User, error)
	GetUser(id string) (*User, error)
	ListUsers() ([]*User, error)

	// Lifecycle
	Close() error
}
