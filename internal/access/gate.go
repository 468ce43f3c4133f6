package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/config"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/server"
)

// Operation names a privileged action guarded by a role check.
type Operation string

const (
	OpListUsers                 Operation = "users.list"
	OpAdministerUsers           Operation = "users.administer"
	OpAdministerContactRequests Operation = "contact_requests.administer"
)

// Policy is the explicit allowed-role set per privileged operation.
// An operation missing from the policy is denied to everyone.
type Policy map[Operation]map[db.Role]bool

// NewPolicy builds the policy from config; every listed role must be valid.
func NewPolicy(cfg config.AccessConfig) (Policy, error) {
	p := Policy{}
	for op, names := range map[Operation][]string{
		OpListUsers:                 cfg.UserListRoles,
		OpAdministerUsers:           cfg.UserAdminRoles,
		OpAdministerContactRequests: cfg.ContactAdminRoles,
	} {
		roles := make(map[db.Role]bool, len(names))
		for _, name := range names {
			role, err := db.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("access policy for %s: %w", op, err)
			}
			roles[role] = true
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("access policy for %s: no roles allowed", op)
		}
		p[op] = roles
	}
	return p, nil
}

func (p Policy) Allows(op Operation, role db.Role) bool {
	return p[op][role]
}

// UserLookup resolves a verified email to its user record.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*db.User, error)
}

// Gate composes identity verification and role checks.
type Gate struct {
	verifier Verifier
	users    UserLookup
	policy   Policy
	logger   *slog.Logger
}

func NewGate(verifier Verifier, users UserLookup, policy Policy, logger *slog.Logger) *Gate {
	return &Gate{verifier: verifier, users: users, policy: policy, logger: logger}
}

// Authenticate verifies the request's bearer assertion.
func (g *Gate) Authenticate(r *http.Request) (Identity, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return Identity{}, svcErr.Unauthorized("unauthorized")
	}
	return g.verifier.Verify(r.Context(), token)
}

// Authorize loads the caller's user record and checks it against the policy for op.
//
// Behavior:
//   - Unknown caller (no user row) → Forbidden.
//   - Role outside the allowed set → Forbidden.
//   - Store failure → mapped error, so outages are not reported as denials.
func (g *Gate) Authorize(ctx context.Context, id Identity, op Operation) (*db.User, error) {
	user, err := g.users.FindByEmail(ctx, id.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.Forbidden("forbidden: no user for identity")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !g.policy.Allows(op, user.Role) {
		g.logger.Debug("access denied", "email", id.Email, "role", user.Role, "operation", op)
		return nil, svcErr.Forbidden("forbidden: insufficient role")
	}
	return user, nil
}

// RequireIdentity rejects requests without a valid identity and stores the
// identity in the request context.
func (g *Gate) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			g.logger.Debug("authentication failed", "path", r.URL.Path, "err", err)
			server.WriteError(w, g.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRole is RequireIdentity followed by a policy check for op.
func (g *Gate) RequireRole(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFrom(r.Context())
			user, err := g.Authorize(r.Context(), id, op)
			if err != nil {
				server.WriteError(w, g.logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
		}))
	}
}

type (
	identityKey struct{}
	userKey     struct{}
)

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserFrom returns the user loaded by RequireRole.
func UserFrom(ctx context.Context) (*db.User, bool) {
	u, ok := ctx.Value(userKey{}).(*db.User)
	return u, ok
}
