package profile

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/cache"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/repository"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

const (
	// TeaserLimit caps the unauthenticated /biodata listing.
	TeaserLimit = 3
	// DefaultPremiumLimit is the /premium-profiles default size.
	DefaultPremiumLimit = 8

	// maxAllocAttempts bounds biodata id re-allocation after unique-index conflicts.
	maxAllocAttempts = 5
)

// Service owns profile creation, public id assignment, profile reads and
// the premium request step.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
}

// NewProfileService creates a profile service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via ProfileRepository)
//   - RedisCache for the biodata id sequence
func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// CreateProfile stores a new biodata for the caller and assigns its public id.
//
// Behavior:
//   - biodataType must be Male or Female (any case).
//   - contactEmail defaults to the caller's email and must match it otherwise.
//   - One profile per contact email; a second one is a Conflict.
//   - The biodata id comes from an atomic Redis counter seeded from the
//     current maximum, so concurrent creations never share an id. The unique
//     index on biodata_id is the final guard: a conflict raises the counter
//     past the table maximum and allocation is retried.
//
// Example:
//
//	p, err := svc.CreateProfile(ctx, caller, Input{BiodataType: "Female", Name: "Nusrat"})
//	// p.BiodataID == 1 on an empty store
func (s *Service) CreateProfile(ctx context.Context, caller access.Identity, in Input) (*db.Profile, error) {
	s.appCtx.Logger.Debug("CreateProfile called", "caller", caller.Email)

	biodataType, err := db.ParseBiodataType(in.BiodataType)
	if err != nil {
		return nil, svcErr.InvalidArgument("biodataType must be Male or Female")
	}

	contactEmail := repository.NormalizeEmail(in.ContactEmail)
	if contactEmail == "" {
		contactEmail = caller.Email
	}
	if contactEmail != caller.Email {
		return nil, svcErr.Forbidden("contactEmail must match the signed-in user")
	}

	exists, err := s.profiles.ExistsByEmail(ctx, contactEmail)
	if err != nil {
		s.appCtx.Logger.Error("ExistsByEmail failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if exists {
		return nil, svcErr.AlreadyExists("biodata already exists for this email")
	}

	profile := in.toModel(biodataType, contactEmail)

	for attempt := 1; attempt <= maxAllocAttempts; attempt++ {
		id, err := s.appCtx.RedisCache.NextSequence(ctx, cache.BiodataSequenceKey, s.profiles.MaxBiodataID)
		if err != nil {
			s.appCtx.Logger.Error("biodata id allocation failed", "err", err)
			return nil, svcErr.Map(err)
		}

		profile.ID = ""
		profile.BiodataID = id
		err = s.profiles.Create(ctx, profile)
		if err == nil {
			s.appCtx.Logger.Info("profile created", "biodata_id", id, "email", contactEmail)
			return profile, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.appCtx.Logger.Error("profile insert failed", "err", err)
			return nil, svcErr.Map(err)
		}

		// either the email raced in or the counter fell behind the table
		if exists, xerr := s.profiles.ExistsByEmail(ctx, contactEmail); xerr == nil && exists {
			return nil, svcErr.AlreadyExists("biodata already exists for this email")
		}
		max, merr := s.profiles.MaxBiodataID(ctx)
		if merr != nil {
			return nil, svcErr.Map(merr)
		}
		if rerr := s.appCtx.RedisCache.RaiseSequence(ctx, cache.BiodataSequenceKey, max); rerr != nil {
			return nil, svcErr.Map(rerr)
		}
		s.appCtx.Logger.Warn("biodata id conflict, retrying", "biodata_id", id, "attempt", attempt)
	}

	return nil, svcErr.Internal(fmt.Errorf("biodata id allocation: gave up after %d attempts", maxAllocAttempts))
}

// FindByEmail returns the profile whose contact email is email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*db.Profile, error) {
	p, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundAs(err, "biodata not found")
	}
	return p, nil
}

// FindByBiodataID returns the profile with the given public id.
func (s *Service) FindByBiodataID(ctx context.Context, biodataID int64) (*db.Profile, error) {
	p, err := s.profiles.FindByBiodataID(ctx, biodataID)
	if err != nil {
		return nil, notFoundAs(err, "biodata not found")
	}
	return p, nil
}

// FindByID returns the profile with the given internal id.
// A malformed id is a validation error, not a miss.
func (s *Service) FindByID(ctx context.Context, id string) (*db.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, svcErr.InvalidArgument("invalid biodata id")
	}
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "biodata not found")
	}
	return p, nil
}

func (s *Service) ListAll(ctx context.Context) ([]db.Profile, error) {
	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return orEmpty(profiles), nil
}

// ListByType returns at most TeaserLimit profiles whose type equals typ,
// ignoring case. An empty typ lists any profiles.
func (s *Service) ListByType(ctx context.Context, typ string) ([]db.Profile, error) {
	profiles, err := s.profiles.ListByType(ctx, typ, TeaserLimit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return orEmpty(profiles), nil
}

// ListPremiumApproved returns premium-approved profiles sorted by numeric age.
//
// Behavior:
//   - desc sorts oldest first; anything else sorts youngest first.
//   - Ages that do not parse as integers sort last in both directions.
//   - Ties keep biodata id order.
//   - limit < 1 uses DefaultPremiumLimit.
func (s *Service) ListPremiumApproved(ctx context.Context, desc bool, limit int) ([]db.Profile, error) {
	if limit < 1 {
		limit = DefaultPremiumLimit
	}

	profiles, err := s.profiles.ListPremiumApproved(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	slices.SortStableFunc(profiles, func(a, b db.Profile) int {
		ageA, okA := numericAge(a.Age)
		ageB, okB := numericAge(b.Age)
		switch {
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		case !okA && !okB:
			return 0
		}
		if desc {
			return cmp.Compare(ageB, ageA)
		}
		return cmp.Compare(ageA, ageB)
	})

	if len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return orEmpty(profiles), nil
}

// RequestPremium flags the caller's own profile as requesting premium.
//
// Behavior:
//   - Unknown profile → NotFound.
//   - Profile owned by someone else → Forbidden.
//   - Already requested (or approved) → no-op; changed is false.
func (s *Service) RequestPremium(ctx context.Context, caller access.Identity, profileID string) (changed bool, err error) {
	s.appCtx.Logger.Debug("RequestPremium called", "profile", profileID, "caller", caller.Email)

	p, err := s.FindByID(ctx, profileID)
	if err != nil {
		return false, err
	}
	if p.ContactEmail != caller.Email {
		return false, svcErr.Forbidden("cannot request premium for another user's biodata")
	}
	if p.PremiumState() != db.PremiumNotRequested {
		return false, nil
	}

	if err := s.profiles.SetPremiumRequested(ctx, p.ID); err != nil {
		s.appCtx.Logger.Error("SetPremiumRequested failed", "err", err)
		return false, svcErr.Map(err)
	}
	return true, nil
}

// ListPremiumRequests pages through profiles that asked for premium, with
// their owner's user id, name and email. Profiles without an owner are skipped.
func (s *Service) ListPremiumRequests(
	ctx context.Context,
	p pagination.Params,
) (pagination.Result[repository.PremiumRequester], error) {
	rows, total, err := s.profiles.ListPremiumRequesters(ctx, p)
	if err != nil {
		s.appCtx.Logger.Error("ListPremiumRequesters failed", "err", err)
		return pagination.Result[repository.PremiumRequester]{}, svcErr.Map(err)
	}
	return pagination.NewResult(rows, total, p), nil
}

func numericAge(age string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(age))
	return n, err == nil
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound(msg)
	}
	return svcErr.Map(err)
}

func orEmpty(profiles []db.Profile) []db.Profile {
	if profiles == nil {
		return []db.Profile{}
	}
	return profiles
}
