package debts

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/daniel11609/schuldenbot/internal/notify"
	"github.com/daniel11609/schuldenbot/internal/scheduler"
	"github.com/daniel11609/schuldenbot/internal/storage"
)

var (
	// ErrUnknownUser means the chosen counterparty is not registered.
	ErrUnknownUser = errors.New("unknown user")
	// ErrSelfDebt means creditor and debtor would be the same chat.
	ErrSelfDebt = errors.New("debtor equals creditor")
)

// Service owns the debt lifecycle: proposed, accepted or rejected, and the
// two-phase paid confirmation. Rejected and paid are terminal. All
// transitions on unknown or never-accepted debts are safe no-ops.
type Service struct {
	store      *storage.Store
	reminders  *scheduler.Service
	dispatcher *notify.Dispatcher
	logger     *zap.SugaredLogger
}

func NewService(store *storage.Store, reminders *scheduler.Service, dispatcher *notify.Dispatcher, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:      store,
		reminders:  reminders,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Propose validates the draft, creates the debt in the proposed state and
// asks the debtor to accept it. The debtor is resolved by display name at
// this point; picking an unknown name or yourself fails validation.
func (s *Service) Propose(ctx context.Context, creditorID, debtorName, category, amount, deadlineInput string) (*storage.Debt, error) {
	deadline, err := ParseDeadline(deadlineInput)
	if err != nil {
		return nil, err
	}

	debtor := s.store.UserByName(debtorName)
	if debtor == nil {
		return nil, errors.Wrapf(ErrUnknownUser, "%q", debtorName)
	}
	if debtor.ChatID == creditorID {
		return nil, errors.Wrapf(ErrSelfDebt, "%q", debtorName)
	}

	debt, err := s.store.AddDebt(ctx, creditorID, category, amount, deadline.Canonical, debtor.ChatID)
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.DebtProposed(debt); err != nil {
		// The debt is committed; a failed proposal message is a transport
		// problem for the operator, not for the creditor's chat.
		s.logger.Errorw("failed to send debt proposal", "debt_id", debt.ID, "err", err)
	}

	return debt, nil
}

// Accept records the debtor's answer. Accepting starts the recurring
// reminder; rejecting notifies the creditor. Unknown ids are a no-op.
func (s *Service) Accept(ctx context.Context, debtID string, accepted bool) (*storage.Debt, error) {
	debt, err := s.store.SetAccepted(ctx, debtID, accepted)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		s.logger.Warnw("accept response for unknown debt", "debt_id", debtID)
		return nil, nil
	}

	if accepted {
		if err := s.reminders.Schedule(debt.ID); err != nil {
			s.logger.Errorw("failed to start reminder", "debt_id", debt.ID, "err", err)
		}
		if err := s.dispatcher.DebtAccepted(debt); err != nil {
			s.logger.Errorw("failed to notify creditor of acceptance", "debt_id", debt.ID, "err", err)
		}
	} else {
		if err := s.dispatcher.DebtRejected(debt); err != nil {
			s.logger.Errorw("failed to notify creditor of rejection", "debt_id", debt.ID, "err", err)
		}
	}

	return debt, nil
}

// AssertPaid handles the debtor's claim that a debt is settled. It changes
// no state: only the creditor's confirmation can do that. The boolean
// reports whether the creditor was actually asked; a debt that is no
// longer open, from a stale button for example, asks nobody.
func (s *Service) AssertPaid(debtID string) (*storage.Debt, bool, error) {
	debt := s.store.DebtByID(debtID)
	if debt == nil {
		s.logger.Warnw("paid assertion for unknown debt", "debt_id", debtID)
		return nil, false, nil
	}
	if !debt.Open() {
		return debt, false, nil
	}

	if err := s.dispatcher.PaymentAsserted(debt); err != nil {
		return debt, false, errors.Wrap(err, "failed to ask creditor for confirmation")
	}
	return debt, true, nil
}

// ResolvePaid handles the creditor's answer to a paid assertion. Confirming
// settles the debt and stops the reminder; declining leaves the debt open
// and tells the debtor. Confirming a never-accepted debt is a no-op.
func (s *Service) ResolvePaid(ctx context.Context, debtID string, confirmed bool) (*storage.Debt, error) {
	debt := s.store.DebtByID(debtID)
	if debt == nil {
		s.logger.Warnw("paid confirmation for unknown debt", "debt_id", debtID)
		return nil, nil
	}

	if !confirmed {
		if err := s.dispatcher.PaymentDisputed(debt); err != nil {
			s.logger.Errorw("failed to notify debtor of dispute", "debt_id", debt.ID, "err", err)
		}
		return debt, nil
	}

	if !debt.Accepted {
		return debt, nil
	}

	debt, err := s.store.SetPaid(ctx, debtID, true)
	if err != nil {
		return nil, err
	}
	s.reminders.Cancel(debtID)
	return debt, nil
}

// CloseClaim settles a debt on the creditor's own initiative, from the
// open-claims view. No counterparty confirmation is involved.
func (s *Service) CloseClaim(ctx context.Context, debtID string) (*storage.Debt, error) {
	debt := s.store.DebtByID(debtID)
	if debt == nil {
		s.logger.Warnw("close request for unknown debt", "debt_id", debtID)
		return nil, nil
	}
	if !debt.Accepted {
		return debt, nil
	}

	debt, err := s.store.SetPaid(ctx, debtID, true)
	if err != nil {
		return nil, err
	}
	s.reminders.Cancel(debtID)
	return debt, nil
}
