package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/db"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection
// (or transaction).
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// NormalizeEmail is the canonical form used as the users.email key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	user.Email = NormalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail looks a user up by normalized email.
// Returns gorm.ErrRecordNotFound when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of users whose name or email contains search,
// ordered by registration time.
func (r *UserRepository) List(
	ctx context.Context,
	p pagination.Params,
	search string,
) ([]db.User, int64, error) {
	return Paginate[db.User](ctx, r.db, p, SearchScope(search, "name", "email"), "created_at ASC, id ASC")
}

// SetRole unconditionally sets the user's role.
func (r *UserRepository) SetRole(ctx context.Context, id string, role db.Role) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("role", role).Error
}

// MarkPremium sets role=premium only if the user is not premium yet.
//
// Behavior:
//   - Returns the number of rows changed: 1 on success, 0 when another
//     caller promoted the user first (or the user vanished).
//   - Run inside the approval transaction so the guard and the profile
//     update commit together.
func (r *UserRepository) MarkPremium(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ? AND role <> ?", id, db.RolePremium).
		Update("role", db.RolePremium)
	return res.RowsAffected, res.Error
}
