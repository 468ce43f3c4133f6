package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/db"
)

type StoryRepository struct {
	db *gorm.DB
}

func NewStoryRepository(database *gorm.DB) *StoryRepository {
	return &StoryRepository{db: database}
}

func (r *StoryRepository) Create(ctx context.Context, story *db.SuccessStory) error {
	return r.db.WithContext(ctx).Create(story).Error
}

// List returns every story, most recent marriage first.
func (r *StoryRepository) List(ctx context.Context) ([]db.SuccessStory, error) {
	var stories []db.SuccessStory
	err := r.db.WithContext(ctx).Order("marriage_date DESC").Find(&stories).Error
	return stories, err
}

func (r *StoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.SuccessStory{}).Count(&count).Error
	return count, err
}
