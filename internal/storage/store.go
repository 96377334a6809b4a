package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Store keeps all users and debts in memory and writes a full snapshot
// through the Repository before any mutation returns. A failed write rolls
// the in-memory change back, so callers never observe uncommitted state.
type Store struct {
	mu    sync.Mutex
	repo  Repository
	users []User
	debts []Debt
}

// NewStore loads the persisted snapshot and returns a ready store.
func NewStore(ctx context.Context, repo Repository) (*Store, error) {
	users, debts, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load snapshot")
	}
	return &Store{repo: repo, users: users, debts: debts}, nil
}

func (s *Store) persist(ctx context.Context) error {
	users := make([]User, len(s.users))
	copy(users, s.users)
	debts := make([]Debt, len(s.debts))
	copy(debts, s.debts)
	return s.repo.Save(ctx, users, debts)
}

// AddUser registers a user. Adding an already known chat id is a no-op and
// returns the existing record.
func (s *Store) AddUser(ctx context.Context, chatID, name string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ChatID == chatID {
			u := s.users[i]
			return &u, nil
		}
	}

	s.users = append(s.users, User{ChatID: chatID, Name: name})
	if err := s.persist(ctx); err != nil {
		s.users = s.users[:len(s.users)-1]
		return nil, errors.Wrap(err, "failed to persist user")
	}

	u := s.users[len(s.users)-1]
	return &u, nil
}

// AddDebt creates a new debt in the proposed state with a fresh time-ordered
// id.
func (s *Store) AddDebt(ctx context.Context, creditorID, category, amount, deadline, debtorID string) (*Debt, error) {
	id, err := uuid.NewUUID()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate debt id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.debts = append(s.debts, Debt{
		ID:         id.String(),
		CreditorID: creditorID,
		DebtorID:   debtorID,
		Category:   category,
		Amount:     amount,
		Deadline:   deadline,
	})
	if err := s.persist(ctx); err != nil {
		s.debts = s.debts[:len(s.debts)-1]
		return nil, errors.Wrap(err, "failed to persist debt")
	}

	d := s.debts[len(s.debts)-1]
	return &d, nil
}

// SetAccepted records the debtor's answer to a debt proposal. Unknown ids
// are a no-op returning (nil, nil); callers must check.
func (s *Store) SetAccepted(ctx context.Context, debtID string, accepted bool) (*Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.debts {
		if s.debts[i].ID != debtID {
			continue
		}
		prev := s.debts[i].Accepted
		s.debts[i].Accepted = accepted
		if err := s.persist(ctx); err != nil {
			s.debts[i].Accepted = prev
			return nil, errors.Wrap(err, "failed to persist accepted status")
		}
		d := s.debts[i]
		return &d, nil
	}
	return nil, nil
}

// SetPaid records the paid status of a debt. Unknown ids are a no-op
// returning (nil, nil); callers must check.
func (s *Store) SetPaid(ctx context.Context, debtID string, paid bool) (*Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.debts {
		if s.debts[i].ID != debtID {
			continue
		}
		prev := s.debts[i].Paid
		s.debts[i].Paid = paid
		if err := s.persist(ctx); err != nil {
			s.debts[i].Paid = prev
			return nil, errors.Wrap(err, "failed to persist paid status")
		}
		d := s.debts[i]
		return &d, nil
	}
	return nil, nil
}

// UserExists reports whether a user with the given chat id is registered.
func (s *Store) UserExists(chatID string) bool {
	return s.UserByChatID(chatID) != nil
}

// UserByChatID returns the user with the given chat id, or nil.
func (s *Store) UserByChatID(chatID string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ChatID == chatID {
			u := s.users[i]
			return &u
		}
	}
	return nil
}

// UserByName returns the first user with the given display name, or nil.
func (s *Store) UserByName(name string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].Name == name {
			u := s.users[i]
			return &u
		}
	}
	return nil
}

// DebtByID returns the debt with the given id, or nil.
func (s *Store) DebtByID(debtID string) *Debt {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.debts {
		if s.debts[i].ID == debtID {
			d := s.debts[i]
			return &d
		}
	}
	return nil
}

// OpenDebtsFor returns all accepted, unpaid debts where the user is the
// debtor.
func (s *Store) OpenDebtsFor(chatID string) []Debt {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open []Debt
	for i := range s.debts {
		if s.debts[i].Open() && s.debts[i].DebtorID == chatID {
			open = append(open, s.debts[i])
		}
	}
	return open
}

// OpenClaimsFor returns all accepted, unpaid debts where the user is the
// creditor.
func (s *Store) OpenClaimsFor(chatID string) []Debt {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open []Debt
	for i := range s.debts {
		if s.debts[i].Open() && s.debts[i].CreditorID == chatID {
			open = append(open, s.debts[i])
		}
	}
	return open
}

// Users returns a copy of all registered users.
func (s *Store) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]User, len(s.users))
	copy(users, s.users)
	return users
}

// Debts returns a copy of all debts, settled and rejected ones included.
func (s *Store) Debts() []Debt {
	s.mu.Lock()
	defer s.mu.Unlock()

	debts := make([]Debt, len(s.debts))
	copy(debts, s.debts)
	return debts
}
