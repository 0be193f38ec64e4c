package aiusage

import (
	"context"
	"errors"
	"fmt"
)

// Service orchestrates completion-quota logic.
type Service struct {
	store     *Store
	allowance int
}

// NewService creates a Service backed by the given Store. A non-positive
// allowance falls back to DefaultMonthlyCompletions.
func NewService(store *Store, allowance int) *Service {
	if allowance <= 0 {
		allowance = DefaultMonthlyCompletions
	}
	return &Service{store: store, allowance: allowance}
}

// Consume deducts one completion from the client's monthly allowance.
// If the client row does not exist yet it is initialised and the completion is immediately consumed.
// Returns ErrQuotaExhausted when the quota for the current month is exhausted.
func (s *Service) Consume(ctx context.Context, clientKey string) error {
	err := s.store.Consume(ctx, clientKey, s.allowance)
	if !errors.Is(err, ErrQuotaExhausted) {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureClient(ctx, clientKey, s.allowance); initErr != nil {
		return fmt.Errorf("init ai usage: %w", initErr)
	}
	return s.store.Consume(ctx, clientKey, s.allowance)
}

func (s *Service) Remaining(ctx context.Context, clientKey string) (int, error) {
	return s.store.Remaining(ctx, clientKey, s.allowance)
}
