package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/db"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// ProfileRepository provides data access methods for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// PremiumRequester is a profile that asked for premium, joined to its owner.
type PremiumRequester struct {
	UserID    string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	BiodataID int64  `json:"biodataId"`
}

// MaxBiodataID returns the highest assigned biodata id, or 0 for an empty table.
func (r *ProfileRepository) MaxBiodataID(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Select("COALESCE(MAX(biodata_id), 0)").
		Scan(&max).Error
	return max, err
}

func (r *ProfileRepository) Create(ctx context.Context, profile *db.Profile) error {
	profile.ContactEmail = NormalizeEmail(profile.ContactEmail)
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*db.Profile, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, contactEmail string) (*db.Profile, error) {
	return r.first(ctx, "contact_email = ?", NormalizeEmail(contactEmail))
}

func (r *ProfileRepository) FindByBiodataID(ctx context.Context, biodataID int64) (*db.Profile, error) {
	return r.first(ctx, "biodata_id = ?", biodataID)
}

func (r *ProfileRepository) ExistsByEmail(ctx context.Context, contactEmail string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("contact_email = ?", NormalizeEmail(contactEmail)).
		Count(&count).Error
	return count > 0, err
}

// FindByBiodataIDs loads the profiles for a set of public ids, keyed by id.
// Missing ids are simply absent from the map.
func (r *ProfileRepository) FindByBiodataIDs(ctx context.Context, ids []int64) (map[int64]db.Profile, error) {
	out := make(map[int64]db.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("biodata_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.BiodataID] = p
	}
	return out, nil
}

// PremiumRequestedByEmail reports the premium_requested flag for each email
// that has a profile. Emails without a profile are absent from the map.
func (r *ProfileRepository) PremiumRequestedByEmail(ctx context.Context, emails []string) (map[string]bool, error) {
	out := make(map[string]bool, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	var rows []struct {
		ContactEmail     string
		PremiumRequested bool
	}
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Select("contact_email, premium_requested").
		Where("contact_email IN ?", emails).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ContactEmail] = row.PremiumRequested
	}
	return out, nil
}

// ListAll returns every profile ordered by biodata id.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).Order("biodata_id ASC").Find(&profiles).Error
	return profiles, err
}

// ListByType returns up to limit profiles whose type equals typ,
// case-insensitively. An empty typ lists any profile.
func (r *ProfileRepository) ListByType(ctx context.Context, typ string, limit int) ([]db.Profile, error) {
	var profiles []db.Profile
	query := r.db.WithContext(ctx).Order("biodata_id ASC").Limit(limit)
	if typ = strings.TrimSpace(typ); typ != "" {
		query = query.Where("LOWER(type) = ?", strings.ToLower(typ))
	}
	err := query.Find(&profiles).Error
	return profiles, err
}

// ListPremiumApproved returns every profile with premium_approved = true.
// Age ordering is applied by the caller since age is stored as text.
func (r *ProfileRepository) ListPremiumApproved(ctx context.Context) ([]db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Where("premium_approved = ?", true).
		Order("biodata_id ASC").
		Find(&profiles).Error
	return profiles, err
}

// SetPremiumRequested flags the profile as having requested premium.
// Setting an already-set flag is a no-op.
func (r *ProfileRepository) SetPremiumRequested(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		Update("premium_requested", true).Error
}

// ApprovePremium sets premium_approved on the profile, provided premium was requested.
func (r *ProfileRepository) ApprovePremium(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ? AND premium_requested = ?", id, true).
		Update("premium_approved", true).Error
}

// ListPremiumRequesters paginates profiles with premium_requested = true,
// inner-joined to their owning user by email.
//
// Behavior:
//   - Profiles whose owner is missing are excluded from both total and data.
//   - Ordered by biodata id.
func (r *ProfileRepository) ListPremiumRequesters(
	ctx context.Context,
	p pagination.Params,
) ([]PremiumRequester, int64, error) {
	var (
		rows  []PremiumRequester
		total int64
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := func() *gorm.DB {
			return tx.Table("profiles p").
				Joins("JOIN users u ON u.email = p.contact_email").
				Where("p.premium_requested = ?", true)
		}

		if err := base().Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			return nil
		}
		return base().
			Select("u.id AS user_id, u.name AS name, u.email AS email, p.biodata_id AS biodata_id").
			Order("p.biodata_id ASC").
			Offset(p.Offset()).
			Limit(p.Limit).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Count returns the number of profiles matching scope.
func (r *ProfileRepository) Count(ctx context.Context, scope Scope) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Scopes(orAll(scope)).
		Count(&count).Error
	return count, err
}

func (r *ProfileRepository) first(ctx context.Context, query string, args ...any) (*db.Profile, error) {
	var profile db.Profile
	if err := r.db.WithContext(ctx).Where(query, args...).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
