// Package errors provides standardized error definitions for the gochat
// relay. All error definitions are centralized here to ensure consistency
// across the server components.
package errors
