package service

import (
	"context"
	"errors"

	"github.com/lexloop/lexloop/internal/store"
)

// DefaultIssueAttempts is the retry budget for inserting a record keyed by a
// freshly generated random value. At 256+ bits of entropy exhausting it is
// operationally unreachable, but the behavior must stay deterministic and
// testable.
const DefaultIssueAttempts = 5

// ErrIssuanceExhausted reports that every attempt hit a uniqueness conflict.
// It signals an entropy or infrastructure anomaly, not a client mistake, and
// is surfaced to callers as an internal failure.
var ErrIssuanceExhausted = errors.New("issuance: retry attempts exhausted")

// issueUnique inserts a record whose unique key is randomly generated. Each
// attempt generates a fresh candidate and tries to persist it; a persist that
// reports store.ErrAlreadyExists triggers a retry with a new candidate (the
// failed value is never reused), and any other failure propagates
// immediately. Returns the candidate that was successfully persisted.
func issueUnique(
	ctx context.Context,
	attempts int,
	generate func() (string, error),
	persist func(ctx context.Context, candidate string) error,
) (string, error) {
	if attempts <= 0 {
		attempts = DefaultIssueAttempts
	}

	for range attempts {
		candidate, err := generate()
		if err != nil {
			return "", err
		}

		err = persist(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		return "", err
	}

	return "", ErrIssuanceExhausted
}
