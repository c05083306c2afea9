package errors

import "errors"

// Authentication errors
var (
	// ErrInvalidToken is returned when an identity token fails verification
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthenticated is returned when an operation requires a bound
	// identity and the connection has none
	ErrUnauthenticated = errors.New("connection not authenticated")

	// ErrInvalidCredentials is returned when a username/password pair is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when registering a username that is taken
	ErrUserExists = errors.New("username already taken")

	// ErrUserNotFound is returned when a user lookup finds nothing
	ErrUserNotFound = errors.New("user not found")
)

// Message routing errors
var (
	// ErrMalformedPayload is returned when an inbound frame is not valid JSON
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrMissingRecipient is returned when an inbound message names no recipient
	ErrMissingRecipient = errors.New("missing recipient")

	// ErrEmptyMessage is returned when a message carries neither text nor file
	ErrEmptyMessage = errors.New("message has no text and no file")

	// ErrConnectionNotFound is returned when a connection id is not registered
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrSendTimeout is returned when pushing to a connection times out
	ErrSendTimeout = errors.New("send timeout")
)

// Storage errors
var (
	// ErrStorageNotInitialized is returned when the store is not initialized
	ErrStorageNotInitialized = errors.New("storage not initialized")

	// ErrDatabaseConnection is returned when the database connection fails
	ErrDatabaseConnection = errors.New("database connection failed")
)

// Configuration errors
var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)
