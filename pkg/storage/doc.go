// Package storage provides durable persistence for the gochat relay.
//
// This package defines the Store interface and its backends: the message
// history log (append-only, queryable by conversation pair) and the user
// account table. The primary implementation uses SQLite; a MySQL backend is
// selected through the same factory.
//
// Usage:
//
//	store, err := storage.NewSQLiteStore("./chat.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	stored, err := store.AppendMessage(msg)
//	history, err := store.Conversation(alice, bob)
//
// A conversation is symmetric: Conversation(a, b) and Conversation(b, a)
// return the same messages, ascending by creation time.
package storage
