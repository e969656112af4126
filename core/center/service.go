package center

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/tachera/mlango/core"
	"github.com/tachera/mlango/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("center not found")
	ErrNameExists   = errors.New("a center with this name already exists")
	ErrUnauthorized = errors.New("only admins may toggle center features")
)

// RejectedError is a toggle refused by the backend for a stated reason
// (unknown feature, missing center...). The prior flag state is untouched.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

type (
	Repository interface {
		CreateCenter(ctx context.Context, ctr Center) (Center, error)
		QueryAllCenters(ctx context.Context) ([]Center, error)
		GetCenterByID(ctx context.Context, id string) (Center, error)
		QueryAllFlags(ctx context.Context) ([]FeatureFlag, error)
		GetCenterFlags(ctx context.Context, centerID string) ([]FeatureFlag, error)
		UpsertFlag(ctx context.Context, flag FeatureFlag) error
	}

	// FlagCache is a read-through cache over one center's flag rows,
	// invalidated after every toggle; never patched in place.
	FlagCache interface {
		Get(ctx context.Context, centerID string) (FlagSet, bool, error)
		Set(ctx context.Context, centerID string, flags FlagSet) error
		Invalidate(ctx context.Context, centerID string) error
	}

	// CallerVerifier re-reads an account by ID so privileged mutations can
	// verify the caller's role server-side instead of trusting claims.
	CallerVerifier interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo    Repository
		callers CallerVerifier
		cache   FlagCache // optional
		logger  core.Logger
	}
)

func NewService(repo Repository, callers CallerVerifier, cache FlagCache, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		callers: callers,
		cache:   cache,
		logger:  logger,
	}
}

func (svc *Service) Create(ctx context.Context, nc NewCenter) (Center, error) {
	now := time.Now().UTC()
	ctr := Center{
		Name:      core.CleanString(nc.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateCenter(ctx, ctr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Center, error) {
	return svc.repo.QueryAllCenters(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Center, error) {
	return svc.repo.GetCenterByID(ctx, id)
}

// QueryAllFlags returns every stored flag row across centers.
// Pairs without a row are enabled and have nothing to list.
func (svc *Service) QueryAllFlags(ctx context.Context) ([]FeatureFlag, error) {
	return svc.repo.QueryAllFlags(ctx)
}

// FlagsForCenter returns the center's flag set for authorization checks.
// It fails open: a fetch failure yields the empty set (everything enabled)
// with a logged warning, so a flaky flag store never locks users out.
func (svc *Service) FlagsForCenter(ctx context.Context, centerID string) FlagSet {
	if svc.cache != nil {
		if flags, ok, err := svc.cache.Get(ctx, centerID); err != nil {
			svc.logger.Warn(fmt.Sprintf("flag cache read for center %s: %v", centerID, err), err)
		} else if ok {
			return flags
		}
	}

	rows, err := svc.repo.GetCenterFlags(ctx, centerID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("fetching flags for center %s failed; failing open: %v", centerID, err), err)
		return nil
	}
	flags := NewFlagSet(rows)

	if svc.cache != nil {
		if err = svc.cache.Set(ctx, centerID, flags); err != nil {
			svc.logger.Warn(fmt.Sprintf("flag cache write for center %s: %v", centerID, err), err)
		}
	}
	return flags
}

// Toggle enables or disables a feature for a center. The caller's admin role
// is re-verified against the user store from the authenticated caller ID;
// the role carried in the caller's claims is treated as a UX hint only.
func (svc *Service) Toggle(ctx context.Context, callerID string, centerID string, feature Feature, enabled bool) error {
	caller, err := svc.callers.GetByID(ctx, callerID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return ErrUnauthorized
		}
		return errors.Wrap(err, "verifying caller")
	}
	if !caller.IsAdmin() || !caller.IsActive {
		return ErrUnauthorized
	}

	if !feature.Known() {
		return &RejectedError{Reason: fmt.Sprintf("unknown feature %q", feature)}
	}
	if _, err = svc.repo.GetCenterByID(ctx, centerID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return &RejectedError{Reason: fmt.Sprintf("unknown center %q", centerID)}
		}
		return errors.Wrap(err, "checking center")
	}

	if err = svc.repo.UpsertFlag(ctx, FeatureFlag{CenterID: centerID, Feature: feature, Enabled: enabled}); err != nil {
		return errors.Wrap(err, "upserting flag")
	}

	// readers re-fetch on the next check; the cache is never patched in place
	if svc.cache != nil {
		if err = svc.cache.Invalidate(ctx, centerID); err != nil {
			svc.logger.Warn(fmt.Sprintf("flag cache invalidation for center %s: %v", centerID, err), err)
		}
	}
	return nil
}
