package ownership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
	"github.com/craftshoplabs/craftshop-backend/pkg/metrics"
)

type memberStore interface {
	ListOwnedBy(ctx context.Context, entity Entity, pivotID uuid.UUID) ([]uuid.UUID, error)
	AddOwner(ctx context.Context, entity Entity, rowID, memberID uuid.UUID) error
	RemoveOwner(ctx context.Context, entity Entity, rowID, memberID uuid.UUID) error
}

// MemberFailure records one row whose owner-set update exhausted its retries.
type MemberFailure struct {
	Entity Entity
	RowID  uuid.UUID
	Err    error
}

// Report summarizes a fan-out run. Already-updated rows stay updated when a
// later row fails; the report tells callers which rows to retry.
type Report struct {
	Succeeded int
	Failed    []MemberFailure
}

// Partial reports whether the run completed with at least one failed row.
func (r *Report) Partial() bool {
	return r != nil && len(r.Failed) > 0
}

// Engine fans collaborator changes out across every owner-set entity the
// granted scopes touch.
type Engine struct {
	store   memberStore
	cfg     config.FanoutConfig
	metrics *metrics.OwnershipMetrics
	logg    *logger.Logger
}

// NewEngine builds the propagation engine. Metrics may be nil.
func NewEngine(store memberStore, cfg config.FanoutConfig, m *metrics.OwnershipMetrics, logg *logger.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("member store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 50 * time.Millisecond
	}
	return &Engine{store: store, cfg: cfg, metrics: m, logg: logg}, nil
}

// CollaboratorAdded adds the new user to the owner set of every row the
// inviter owns, for each entity the granted scopes cover. Idempotent per row.
func (e *Engine) CollaboratorAdded(ctx context.Context, inviterID, newUserID uuid.UUID, scopes []enums.PermissionScope) (*Report, error) {
	if inviterID == uuid.Nil || newUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inviter and new user ids are required")
	}
	return e.run(ctx, "collaborator_added", inviterID, scopes, func(ctx context.Context, entity Entity, rowID uuid.UUID) error {
		return e.store.AddOwner(ctx, entity, rowID, newUserID)
	})
}

// CollaboratorRemoved strips the departing user from every owner set that
// contains it. Rows are never deleted, only shrunk.
func (e *Engine) CollaboratorRemoved(ctx context.Context, userID uuid.UUID, scopes []enums.PermissionScope) (*Report, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return e.run(ctx, "collaborator_removed", userID, scopes, func(ctx context.Context, entity Entity, rowID uuid.UUID) error {
		return e.store.RemoveOwner(ctx, entity, rowID, userID)
	})
}

func (e *Engine) run(ctx context.Context, operation string, pivotID uuid.UUID, scopes []enums.PermissionScope, apply func(context.Context, Entity, uuid.UUID) error) (*Report, error) {
	start := time.Now()
	report := &Report{}
	var failures error

	for _, entity := range EntitiesForScopes(scopes) {
		ids, err := e.store.ListOwnedBy(ctx, entity, pivotID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing owner-set rows")
		}

		for _, rowID := range ids {
			if err := e.applyWithRetry(ctx, entity, rowID, apply); err != nil {
				report.Failed = append(report.Failed, MemberFailure{Entity: entity, RowID: rowID, Err: err})
				failures = multierr.Append(failures, fmt.Errorf("%s/%s: %w", entity, rowID, err))
				e.metrics.AddFailure(string(entity), 1)
				continue
			}
			report.Succeeded++
			e.metrics.AddSuccess(string(entity), 1)
		}
	}

	e.metrics.ObserveDuration(operation, time.Since(start))

	if report.Partial() {
		e.metrics.IncPartial(operation)
		fields := map[string]any{
			"operation": operation,
			"pivot_id":  pivotID.String(),
			"succeeded": report.Succeeded,
			"failed":    len(report.Failed),
		}
		e.logg.Error(e.logg.WithFields(ctx, fields), "ownership fan-out completed partially", failures)
		return report, pkgerrors.Wrap(pkgerrors.CodePartial, failures, "ownership fan-out completed partially")
	}

	return report, nil
}

func (e *Engine) applyWithRetry(ctx context.Context, entity Entity, rowID uuid.UUID, apply func(context.Context, Entity, uuid.UUID) error) error {
	backoff := retry.WithMaxRetries(e.cfg.MaxAttempts-1, retry.NewExponential(e.cfg.BaseBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := apply(ctx, entity, rowID); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
