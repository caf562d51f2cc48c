package strategy

import (
	"fmt"

	"github.com/0xsooki/bribery-zoo/params"
)

// Entry is one diagnosable event a byzantine player recorded while playing
// a game: a self-abort and its reason, the only event the strategies
// record (blacklisting and offer acceptance add no entry). This is the Go
// counterpart of the original simulator's event_list entries, the
// authoritative revision's way of carrying a human-readable trace out of
// an otherwise pure strategy without it ever becoming part of engine state
// (spec.md places trace formatting itself out of scope; only the raw log
// is part of the core).
type Entry struct {
	Slot    params.Slot
	Message string
}

// EventLog is an append-only sink every strategy in a single game shares.
// It is not part of engine.Engine: the event trail belongs to the players
// observing the game, not to consensus state.
type EventLog struct {
	entries []Entry
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append records one event at the given slot.
func (l *EventLog) Append(slot params.Slot, format string, args ...any) {
	if l == nil {
		return
	}
	l.entries = append(l.entries, Entry{Slot: slot, Message: fmt.Sprintf(format, args...)})
}

// Entries returns every event recorded so far, oldest first.
func (l *EventLog) Entries() []Entry {
	return l.entries
}
