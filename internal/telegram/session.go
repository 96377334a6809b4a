package telegram

import "sync"

// sessionState tags where a chat currently is in the new-debt dialog.
type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingUser
	stateAwaitingCategory
	stateAwaitingAmount
	stateAwaitingDeadline
)

// session is the per-chat dialog state. The draft fields fill up as the
// new-debt flow advances and are cleared on completion, cancellation or
// when a command interrupts the flow. Sessions are never removed; an idle
// session is a few plain fields keyed by chat id.
//
// mu serializes dialog steps: a handler holds it from routing until its
// responses are built, so two quick messages from the same chat cannot
// interleave on the draft. Updates are handled on separate goroutines and
// this lock is the only thing ordering them per chat.
type session struct {
	mu sync.Mutex

	state sessionState

	debtor   string
	category string
	amount   string
	// mobility switches the amount keyboard from € presets to km presets.
	mobility bool
}

func (s *session) reset() {
	s.state = stateIdle
	s.debtor = ""
	s.category = ""
	s.amount = ""
	s.mobility = false
}
