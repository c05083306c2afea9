package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/go-sql-driver/mysql"

	"gochat/pkg/errors"
	"gochat/pkg/protocol"
)

// MySQLStore implements Store interface using MySQL backend
// (use Database.Path as DSN)
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL-backed store
func NewMySQLStore(dsn string) (Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	s := &MySQLStore{db: db}
	if err := s.initDB(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) initDB() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(36) PRIMARY KEY,
			sender VARCHAR(36) NOT NULL,
			recipient VARCHAR(36) NOT NULL,
			text TEXT,
			file VARCHAR(255),
			created_at DATETIME(3) NOT NULL,
			INDEX idx_messages_pair (sender, recipient, created_at)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AppendMessage durably records a message, assigning id and creation time
// when unset.
func (s *MySQLStore) AppendMessage(msg *protocol.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO messages (id, sender, recipient, text, file, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Sender, msg.Recipient, msg.Text, msg.File, msg.CreatedAt,
	)
	return err
}

// Conversation returns the symmetric pair history ascending by time.
func (s *MySQLStore) Conversation(userA, userB string) ([]*protocol.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, sender, recipient, text, file, created_at
		FROM messages
		WHERE (sender = ? AND recipient = ?) OR (sender = ? AND recipient = ?)
		ORDER BY created_at ASC, id ASC`,
		userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// CreateUser inserts a new user account
func (s *MySQLStore) CreateUser(user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "Duplicate entry") {
		return errors.ErrUserExists
	}
	return err
}

// GetUserByName retrieves a user by username
func (s *MySQLStore) GetUserByName(username string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ? LIMIT 1`,
		username,
	)
	return scanUser(row)
}

// GetUser retrieves a user by id
func (s *MySQLStore) GetUser(id string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ? LIMIT 1`,
		id,
	)
	return scanUser(row)
}

// ListUsers returns all registered users ordered by username
func (s *MySQLStore) ListUsers() ([]*User, error) {
	rows, err := s.db.Query(`SELECT id, username, password_hash, created_at FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if s.db == nil {
		return errors.ErrStorageNotInitialized
	}
	return s.db.Close()
}
