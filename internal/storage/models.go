package storage

import "strings"

// User represents a registered chat participant. Users are created once on
// registration and never mutated or deleted afterwards.
type User struct {
	ChatID string
	Name   string
}

// Debt is a recorded obligation of the debtor towards the creditor.
// Deadline is stored in the sortable canonical form "YYYY:MM:DD".
// Accepted stays false until the debtor confirms the proposal; a rejected
// debt simply never becomes accepted. Paid is set only through the
// creditor's confirmation. Debts are never deleted; settled and rejected
// ones just drop out of the open queries.
type Debt struct {
	ID         string
	CreditorID string
	DebtorID   string
	Category   string
	Amount     string
	Deadline   string
	Accepted   bool
	Paid       bool
}

// Open reports whether the debt is accepted and not yet paid.
func (d *Debt) Open() bool {
	return d.Accepted && !d.Paid
}

// DeadlineDisplay renders the canonical deadline as "DD.MM.YYYY".
func (d *Debt) DeadlineDisplay() string {
	parts := strings.Split(d.Deadline, ":")
	if len(parts) != 3 {
		return d.Deadline
	}
	return parts[2] + "." + parts[1] + "." + parts[0]
}
