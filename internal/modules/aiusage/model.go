// README: Completion quota ledger: each client gets a monthly allowance of plan syntheses.
package aiusage

import (
	"errors"
	"time"
)

// ErrQuotaExhausted is returned when a client has no completions left for the current month.
var ErrQuotaExhausted = errors.New("monthly completion quota exhausted")

// DefaultMonthlyCompletions applies when no allowance is configured.
const DefaultMonthlyCompletions = 100

// Usage is one ai_usage row.
type Usage struct {
	ClientKey            string
	CompletionsRemaining int
	LastResetMonth       string
}

// billingMonth is the "YYYY-MM" key the counter resets on; it compares lexically.
func billingMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}
