package story

import (
	"context"
	"strings"
	"time"

	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/repository"
)

// Service manages published success stories.
type Service struct {
	appCtx  *app.AppContext
	stories *repository.StoryRepository
}

func NewStoryService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, stories: repository.NewStoryRepository(appCtx.DB)}
}

// CreateInput is the body of POST /api/success-stories.
// MarriageDate accepts RFC 3339 or a plain 2006-01-02 date.
type CreateInput struct {
	CoupleImage  string `json:"coupleImage"`
	MarriageDate string `json:"marriageDate"`
	Rating       int    `json:"rating"`
	SuccessStory string `json:"successStory"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Create validates and stores a story. All fields are required and rating is 1 to 5.
func (s *Service) Create(ctx context.Context, in CreateInput) (*db.SuccessStory, error) {
	s.appCtx.Logger.Debug("Create story called")

	in.CoupleImage = strings.TrimSpace(in.CoupleImage)
	in.SuccessStory = strings.TrimSpace(in.SuccessStory)
	if in.CoupleImage == "" || in.SuccessStory == "" || strings.TrimSpace(in.MarriageDate) == "" {
		return nil, svcErr.InvalidArgument("Missing required fields")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, svcErr.InvalidArgument("rating must be between 1 and 5")
	}
	married, ok := parseDate(in.MarriageDate)
	if !ok {
		return nil, svcErr.InvalidArgument("marriageDate must be a date")
	}

	story := &db.SuccessStory{
		CoupleImage:  in.CoupleImage,
		MarriageDate: married,
		Rating:       in.Rating,
		Story:        in.SuccessStory,
	}
	if err := s.stories.Create(ctx, story); err != nil {
		s.appCtx.Logger.Error("story insert failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return story, nil
}

// List returns every story, most recent marriage first.
func (s *Service) List(ctx context.Context) ([]db.SuccessStory, error) {
	stories, err := s.stories.List(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if stories == nil {
		stories = []db.SuccessStory{}
	}
	return stories, nil
}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
