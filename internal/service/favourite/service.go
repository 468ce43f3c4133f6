package favourite

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/repository"
)

// Service is the per-user bookmark set.
type Service struct {
	appCtx     *app.AppContext
	favourites *repository.FavouriteRepository
}

func NewFavouriteService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		favourites: repository.NewFavouriteRepository(appCtx.DB),
	}
}

// AddInput is the body of POST /favourites.
type AddInput struct {
	UserEmail        string   `json:"userEmail"`
	BiodataUniqueID  uniqueID `json:"biodataUniqueId"`
	Name             string   `json:"name"`
	PermanentAddress string   `json:"permanentAddress"`
	Occupation       string   `json:"occupation"`
}

// uniqueID accepts both 12 and "12".
type uniqueID string

func (u *uniqueID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*u = uniqueID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*u = uniqueID(n.String())
	return nil
}

// List is the GET /favourites response.
type List struct {
	Data  []db.Favourite `json:"data"`
	Total int            `json:"total"`
}

// Add bookmarks a biodata for the caller.
//
// Behavior:
//   - biodataUniqueId is required; userEmail defaults to the caller and must match it.
//   - A second bookmark of the same biodata is a Conflict, whether caught by
//     the pre-check or by the unique index.
func (s *Service) Add(ctx context.Context, caller access.Identity, in AddInput) (*db.Favourite, error) {
	s.appCtx.Logger.Debug("Add favourite called", "caller", caller.Email, "biodata", in.BiodataUniqueID)

	owner, err := ownerOf(caller, in.UserEmail)
	if err != nil {
		return nil, err
	}
	if in.BiodataUniqueID == "" {
		return nil, svcErr.InvalidArgument("biodataUniqueId is required")
	}

	exists, err := s.favourites.Exists(ctx, owner, string(in.BiodataUniqueID))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if exists {
		return nil, svcErr.AlreadyExists("Already added to favourites")
	}

	fav := &db.Favourite{
		UserEmail:        owner,
		BiodataUniqueID:  string(in.BiodataUniqueID),
		Name:             strings.TrimSpace(in.Name),
		PermanentAddress: strings.TrimSpace(in.PermanentAddress),
		Occupation:       strings.TrimSpace(in.Occupation),
	}
	if err := s.favourites.Create(ctx, fav); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, svcErr.AlreadyExists("Already added to favourites")
		}
		s.appCtx.Logger.Error("favourite insert failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return fav, nil
}

// ListForUser returns the caller's favourites. An empty set is not an error.
func (s *Service) ListForUser(ctx context.Context, caller access.Identity, userEmail string) (List, error) {
	owner, err := ownerOf(caller, userEmail)
	if err != nil {
		return List{}, err
	}

	favs, err := s.favourites.ListForUser(ctx, owner)
	if err != nil {
		s.appCtx.Logger.Error("ListForUser favourites failed", "err", err)
		return List{}, svcErr.Map(err)
	}
	if favs == nil {
		favs = []db.Favourite{}
	}
	return List{Data: favs, Total: len(favs)}, nil
}

// Remove deletes one of the caller's favourites and reports how many rows
// went away. Someone else's favourite is left alone.
func (s *Service) Remove(ctx context.Context, caller access.Identity, id string) (int64, error) {
	n, err := s.favourites.Delete(ctx, id, caller.Email)
	if err != nil {
		s.appCtx.Logger.Error("favourite delete failed", "err", err)
		return 0, svcErr.Map(err)
	}
	return n, nil
}

func ownerOf(caller access.Identity, email string) (string, error) {
	owner := repository.NormalizeEmail(email)
	if owner == "" {
		return caller.Email, nil
	}
	if owner != caller.Email {
		return "", svcErr.Forbidden("favourites belong to the signed-in user")
	}
	return owner, nil
}
