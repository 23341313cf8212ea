// Package wsserver provides the websocket protocol server: connection
// acceptance, one-session-per-address admission, and per-session line
// dispatch to pluggable handlers.
package wsserver

// Each admitted connection gets its own goroutine reading the framed
// channel one byte at a time; a session's lines are therefore dispatched
// in arrival order and each handler call completes before the next byte
// of that session is examined. There is no ordering between sessions.
// The registry is the only state shared across sessions and all of its
// mutation is serialized, so admission is atomic.
