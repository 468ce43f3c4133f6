package user

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/repository"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// Service implements user registration, lookups, the admin user listing and
// role changes, including the premium approval step.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
}

// NewUserService creates a user service with dependencies from AppContext.
func NewUserService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// RegisterInput is the body of POST /users.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// Listed is a user row with the premiumRequested flag of its profile.
type Listed struct {
	db.User
	PremiumRequested bool `json:"premiumRequested"`
}

// Register creates a basic user. Any role in the request is ignored.
//
// Behavior:
//   - Email is required and stored lower-cased.
//   - An existing email is a Conflict, whether found by the pre-check or
//     by the unique index.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	s.appCtx.Logger.Debug("Register called", "email", in.Email)

	email := repository.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, svcErr.InvalidArgument("a valid email is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, svcErr.AlreadyExists("User already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.appCtx.Logger.Error("FindByEmail failed", "err", err)
		return nil, svcErr.Map(err)
	}

	u := &db.User{
		Email:    email,
		Name:     strings.TrimSpace(in.Name),
		PhotoURL: strings.TrimSpace(in.PhotoURL),
		Role:     db.RoleBasic,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, svcErr.AlreadyExists("User already exists")
		}
		s.appCtx.Logger.Error("user insert failed", "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user registered", "id", u.ID, "email", u.Email)
	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	return u, nil
}

// RoleOf returns the role of the user with the given email.
func (s *Service) RoleOf(ctx context.Context, email string) (db.Role, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// List pages through users whose name or email contains search and attaches
// each user's profile premiumRequested flag.
//
// Behavior:
//   - Ordered by registration time.
//   - Flags are loaded in one batched lookup; a user without a profile gets false.
//
// Example:
//
//	res, err := svc.List(ctx, pagination.New(1, 10), "rahman")
func (s *Service) List(ctx context.Context, p pagination.Params, search string) (pagination.Result[Listed], error) {
	s.appCtx.Logger.Debug("List users called", "page", p.Page, "limit", p.Limit, "search", search)

	users, total, err := s.users.List(ctx, p, search)
	if err != nil {
		s.appCtx.Logger.Error("List users failed", "err", err)
		return pagination.Result[Listed]{}, svcErr.Map(err)
	}

	emails := make([]string, len(users))
	for i, u := range users {
		emails[i] = u.Email
	}
	flags, err := s.profiles.PremiumRequestedByEmail(ctx, emails)
	if err != nil {
		s.appCtx.Logger.Error("PremiumRequestedByEmail failed", "err", err)
		return pagination.Result[Listed]{}, svcErr.Map(err)
	}

	listed := make([]Listed, len(users))
	for i, u := range users {
		listed[i] = Listed{User: u, PremiumRequested: flags[u.Email]}
	}
	return pagination.NewResult(listed, total, p), nil
}

// MakeAdmin promotes the user to admin. Promoting an admin again changes
// nothing and reports changed = false.
func (s *Service) MakeAdmin(ctx context.Context, id string) (changed bool, err error) {
	s.appCtx.Logger.Debug("MakeAdmin called", "id", id)

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return false, notFoundAs(err, "User not found")
	}
	if !u.Role.CanTransitionTo(db.RoleAdmin) {
		return false, svcErr.InvalidState("role cannot change to admin")
	}
	if u.Role == db.RoleAdmin {
		return false, nil
	}

	if err := s.users.SetRole(ctx, u.ID, db.RoleAdmin); err != nil {
		s.appCtx.Logger.Error("SetRole failed", "err", err)
		return false, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("user promoted to admin", "id", u.ID, "email", u.Email)
	return true, nil
}

// ApprovePremium moves a user whose profile requested premium to the
// premium role and marks the profile approved.
//
// Behavior:
//   - Unknown user → NotFound.
//   - Already premium → Conflict.
//   - Admins cannot be moved to premium → InvalidState.
//   - No profile, or premium not requested → InvalidState.
//   - The role change and the profile flag commit in one transaction. The
//     role update is conditional on role <> premium, so of two concurrent
//     approvals exactly one succeeds and the other gets Conflict.
func (s *Service) ApprovePremium(ctx context.Context, id string) error {
	s.appCtx.Logger.Debug("ApprovePremium called", "id", id)

	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		profiles := repository.NewProfileRepository(tx)

		u, err := users.FindByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "User not found")
		}
		if u.Role == db.RolePremium {
			return svcErr.AlreadyExists("User is already premium")
		}
		if !u.Role.CanTransitionTo(db.RolePremium) {
			return svcErr.InvalidState("an admin cannot be made premium")
		}

		p, err := profiles.FindByEmail(ctx, u.Email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.InvalidState("User's profile has not requested premium")
		}
		if err != nil {
			return err
		}
		if p.PremiumState() == db.PremiumNotRequested {
			return svcErr.InvalidState("User's profile has not requested premium")
		}

		n, err := users.MarkPremium(ctx, u.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return svcErr.AlreadyExists("User is already premium")
		}
		return profiles.ApprovePremium(ctx, p.ID)
	})
	if err != nil {
		if svcErr.KindOf(err) == svcErr.KindInternal {
			s.appCtx.Logger.Error("ApprovePremium failed", "id", id, "err", err)
		}
		return svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user made premium", "id", id)
	return nil
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound(msg)
	}
	return svcErr.Map(err)
}
