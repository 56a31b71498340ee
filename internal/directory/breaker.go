package directory

import (
	"context"
	"fmt"

	"docket/pkg/circuitbreaker"
)

// BreakerDirectory protects the business-table lookups with a circuit
// breaker so a struggling database does not stall every dispatch.
type BreakerDirectory struct {
	inner Directory
	cb    *circuitbreaker.Wrapper
	name  string
}

func NewBreakerDirectory(inner Directory, cfg circuitbreaker.Config) *BreakerDirectory {
	return &BreakerDirectory{
		inner: inner,
		cb:    circuitbreaker.NewWrapper(cfg),
		name:  cfg.Name,
	}
}

func (d *BreakerDirectory) UserName(ctx context.Context, userID string) (string, error) {
	result, err := d.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return d.inner.UserName(ctx, userID)
	})
	if err != nil {
		return "", d.wrapErr(err)
	}
	return result.(string), nil
}

func (d *BreakerDirectory) CaseTitle(ctx context.Context, caseID string) (string, error) {
	result, err := d.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return d.inner.CaseTitle(ctx, caseID)
	})
	if err != nil {
		return "", d.wrapErr(err)
	}
	return result.(string), nil
}

func (d *BreakerDirectory) CaseTeam(ctx context.Context, caseID string) (CaseTeam, error) {
	result, err := d.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return d.inner.CaseTeam(ctx, caseID)
	})
	if err != nil {
		return CaseTeam{}, d.wrapErr(err)
	}
	return result.(CaseTeam), nil
}

func (d *BreakerDirectory) wrapErr(err error) error {
	if d.cb.IsOpen() {
		return fmt.Errorf("circuit breaker is open for %s: %w", d.name, err)
	}
	return err
}
