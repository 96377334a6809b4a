package scheduler

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/daniel11609/schuldenbot/internal/notify"
	"github.com/daniel11609/schuldenbot/internal/storage"
)

// Service runs one recurring reminder job per accepted, unpaid debt. The
// cron spec comes from the configuration: once per day at a fixed time in
// production, a short fixed interval in accelerated test mode.
type Service struct {
	store      *storage.Store
	dispatcher *notify.Dispatcher
	logger     *zap.SugaredLogger
	spec       string

	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func NewService(store *storage.Store, dispatcher *notify.Dispatcher, spec string, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		spec:       spec,
		cron:       cron.New(),
		jobs:       make(map[string]cron.EntryID),
	}
}

// Start begins firing scheduled jobs.
func (s *Service) Start() {
	s.cron.Start()
}

// Stop stops firing jobs. Running fires finish on their own.
func (s *Service) Stop() {
	s.cron.Stop()
}

// Schedule registers the recurring reminder job for a debt. Scheduling an
// already scheduled debt is a no-op.
func (s *Service) Schedule(debtID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[debtID]; ok {
		return nil
	}

	id, err := s.cron.AddFunc(s.spec, func() { s.remind(debtID) })
	if err != nil {
		return errors.Wrapf(err, "failed to schedule reminder for debt %s", debtID)
	}
	s.jobs[debtID] = id

	s.logger.Infow("reminder scheduled", "debt_id", debtID)
	return nil
}

// Cancel removes the reminder job for a debt and reports whether one was
// found. Cancelling twice is safe; the second call returns false.
func (s *Service) Cancel(debtID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.jobs[debtID]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.jobs, debtID)

	s.logger.Infow("reminder cancelled", "debt_id", debtID)
	return true
}

// Scheduled reports whether a reminder job exists for the debt.
func (s *Service) Scheduled(debtID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.jobs[debtID]
	return ok
}

// Reconcile ensures that exactly one job exists for every accepted, unpaid
// debt. It runs at startup, after the store has loaded its snapshot, and is
// idempotent.
func (s *Service) Reconcile() {
	for _, debt := range s.store.Debts() {
		if !debt.Open() {
			continue
		}
		if err := s.Schedule(debt.ID); err != nil {
			s.logger.Errorw("failed to reconcile reminder", "debt_id", debt.ID, "err", err)
		}
	}
}

// remind is one firing. The debt and both users are looked up at fire time
// so renames and status changes are reflected.
func (s *Service) remind(debtID string) {
	debt := s.store.DebtByID(debtID)
	if debt == nil {
		s.logger.Errorw("debt missing at reminder time", "debt_id", debtID)
		return
	}
	if debt.Paid {
		// A cancel was missed somewhere; drop the job instead of nagging
		// about a settled debt.
		s.Cancel(debtID)
		return
	}

	s.dispatcher.Remind(debt)
}
