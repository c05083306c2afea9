package storage

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"gochat/pkg/errors"
	"gochat/pkg/protocol"
)

// SQLiteStore implements Store interface using SQLite backend
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed store
func NewSQLiteStore(dbPath string) (Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{
		db: db,
	}

	if err := store.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initDB initializes the database schema
func (s *SQLiteStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		recipient TEXT NOT NULL,
		text TEXT,
		file TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (sender) REFERENCES users(id),
		FOREIGN KEY (recipient) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender, recipient, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AppendMessage durably records a message, assigning an id and creation
// time when the caller has not set them.
func (s *SQLiteStore) AppendMessage(msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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

// Conversation returns all messages exchanged between the two users in
// either direction, ascending by creation time. The pair match is exact:
// messages involving any third user are never included.
func (s *SQLiteStore) Conversation(userA, userB string) ([]*protocol.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, sender, recipient, text, file, created_at
	FROM messages
	WHERE (sender = ? AND recipient = ?) OR (sender = ? AND recipient = ?)
	ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.Query(query, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// CreateUser inserts a new user account
func (s *SQLiteStore) CreateUser(user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return errors.ErrUserExists
	}
	return err
}

// GetUserByName retrieves a user by username
func (s *SQLiteStore) GetUserByName(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username,
	)
	return scanUser(row)
}

// GetUser retrieves a user by id
func (s *SQLiteStore) GetUser(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// ListUsers returns all registered users ordered by username
func (s *SQLiteStore) ListUsers() ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func scanMessages(rows *sql.Rows) ([]*protocol.Message, error) {
	var messages []*protocol.Message
	for rows.Next() {
		var msg protocol.Message
		var text, file sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Recipient, &text, &file, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Text = text.String
		msg.File = file.String
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
