package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/db"
)

// FavouriteRepository provides data access methods for favourites.
type FavouriteRepository struct {
	db *gorm.DB
}

func NewFavouriteRepository(database *gorm.DB) *FavouriteRepository {
	return &FavouriteRepository{db: database}
}

// Exists reports whether the user already bookmarked the biodata.
func (r *FavouriteRepository) Exists(ctx context.Context, userEmail, biodataUniqueID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Favourite{}).
		Where("user_email = ? AND biodata_unique_id = ?", NormalizeEmail(userEmail), biodataUniqueID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts the favourite. The (user_email, biodata_unique_id) unique
// index turns a racing duplicate into gorm.ErrDuplicatedKey.
func (r *FavouriteRepository) Create(ctx context.Context, fav *db.Favourite) error {
	fav.UserEmail = NormalizeEmail(fav.UserEmail)
	return r.db.WithContext(ctx).Create(fav).Error
}

// ListForUser returns the user's favourites, oldest first.
func (r *FavouriteRepository) ListForUser(ctx context.Context, userEmail string) ([]db.Favourite, error) {
	var favs []db.Favourite
	err := r.db.WithContext(ctx).
		Where("user_email = ?", NormalizeEmail(userEmail)).
		Order("created_at ASC, id ASC").
		Find(&favs).Error
	return favs, err
}

// Delete removes the favourite with id if it belongs to userEmail.
func (r *FavouriteRepository) Delete(ctx context.Context, id, userEmail string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_email = ?", id, NormalizeEmail(userEmail)).
		Delete(&db.Favourite{})
	return res.RowsAffected, res.Error
}
