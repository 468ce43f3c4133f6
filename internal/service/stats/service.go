package stats

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/repository"
)

// Service derives reporting figures from the other collections.
// Nothing is cached; every call recomputes.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	requests *repository.ContactRequestRepository
	stories  *repository.StoryRepository
}

func NewStatsService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		requests: repository.NewContactRequestRepository(appCtx.DB),
		stories:  repository.NewStoryRepository(appCtx.DB),
	}
}

// AdminStats is the admin dashboard summary. Revenue is derived from
// approved contact requests and is not an accounting figure.
type AdminStats struct {
	TotalBiodata int64           `json:"totalBiodata"`
	MaleCount    int64           `json:"maleCount"`
	FemaleCount  int64           `json:"femaleCount"`
	PremiumCount int64           `json:"premiumCount"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// SuccessCounter is the public landing-page counter.
type SuccessCounter struct {
	TotalProfiles  int64 `json:"totalProfiles"`
	BoysCount      int64 `json:"boysCount"`
	GirlsCount     int64 `json:"girlsCount"`
	MarriagesCount int64 `json:"marriagesCount"`
}

// Admin computes profile counts by type, the number of premium requests
// and the sum of amountPaid over approved contact requests.
func (s *Service) Admin(ctx context.Context) (AdminStats, error) {
	s.appCtx.Logger.Debug("Admin stats called")

	var out AdminStats
	counts := []struct {
		dst   *int64
		scope repository.Scope
	}{
		{&out.TotalBiodata, nil},
		{&out.MaleCount, repository.Where("biodata_type = ?", db.BiodataMale)},
		{&out.FemaleCount, repository.Where("biodata_type = ?", db.BiodataFemale)},
		{&out.PremiumCount, repository.Where("premium_requested = ?", true)},
	}
	for _, c := range counts {
		n, err := s.profiles.Count(ctx, c.scope)
		if err != nil {
			s.appCtx.Logger.Error("profile count failed", "err", err)
			return AdminStats{}, svcErr.Map(err)
		}
		*c.dst = n
	}

	amounts, err := s.requests.ApprovedAmounts(ctx)
	if err != nil {
		s.appCtx.Logger.Error("ApprovedAmounts failed", "err", err)
		return AdminStats{}, svcErr.Map(err)
	}
	out.TotalRevenue = decimal.Sum(decimal.Zero, amounts...)
	return out, nil
}

// Counter computes the public success counter. Biodata types are matched
// without regard to case.
func (s *Service) Counter(ctx context.Context) (SuccessCounter, error) {
	var out SuccessCounter
	counts := []struct {
		dst   *int64
		scope repository.Scope
	}{
		{&out.TotalProfiles, nil},
		{&out.BoysCount, repository.Where("LOWER(biodata_type) = ?", "male")},
		{&out.GirlsCount, repository.Where("LOWER(biodata_type) = ?", "female")},
	}
	for _, c := range counts {
		n, err := s.profiles.Count(ctx, c.scope)
		if err != nil {
			return SuccessCounter{}, svcErr.Map(err)
		}
		*c.dst = n
	}

	n, err := s.stories.Count(ctx)
	if err != nil {
		return SuccessCounter{}, svcErr.Map(err)
	}
	out.MarriagesCount = n
	return out, nil
}
