package aiusage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_usage persistence.
type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: time.Now}
}

// Consume atomically checks the monthly quota and deducts one completion.
// The counter resets to allowance when last_reset_month is behind the current month.
// Returns ErrQuotaExhausted when 0 rows are updated (quota exhausted or client absent).
func (s *Store) Consume(ctx context.Context, clientKey string, allowance int) error {
	month := billingMonth(s.now())

	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			completions_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE completions_remaining - 1 END,
			last_reset_month = $1
		WHERE client_key = $3 AND (last_reset_month < $1 OR completions_remaining > 0)
	`, month, allowance, clientKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// EnsureClient inserts a row for clientKey with the full allowance.
// Existing rows are left untouched (ON CONFLICT DO NOTHING).
func (s *Store) EnsureClient(ctx context.Context, clientKey string, allowance int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (client_key, completions_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_key) DO NOTHING
	`, clientKey, allowance, billingMonth(s.now()))
	return err
}

// Get loads the client's row; ok is false for clients never seen.
func (s *Store) Get(ctx context.Context, clientKey string) (u Usage, ok bool, err error) {
	err = s.db.QueryRow(ctx,
		`SELECT client_key, completions_remaining, last_reset_month FROM ai_usage WHERE client_key = $1`,
		clientKey).Scan(&u.ClientKey, &u.CompletionsRemaining, &u.LastResetMonth)
	if errors.Is(err, pgx.ErrNoRows) {
		return Usage{}, false, nil
	}
	if err != nil {
		return Usage{}, false, err
	}
	return u, true, nil
}

// Remaining reports the completions left this month; unknown clients have the full allowance.
func (s *Store) Remaining(ctx context.Context, clientKey string, allowance int) (int, error) {
	u, ok, err := s.Get(ctx, clientKey)
	if err != nil {
		return 0, err
	}
	if !ok || u.LastResetMonth < billingMonth(s.now()) {
		return allowance, nil
	}
	return u.CompletionsRemaining, nil
}
