package user_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/repository"
	"github.com/oggyb/loveknot/internal/server"
	"github.com/oggyb/loveknot/internal/service/user"
	"github.com/oggyb/loveknot/internal/testutil"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

func TestRegister(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := user.NewUserService(env.App)
	ctx := context.Background()

	u, err := svc.Register(ctx, user.RegisterInput{Email: "New@Example.com", Name: " New "})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, db.RoleBasic, u.Role)

	_, err = svc.Register(ctx, user.RegisterInput{Email: "NEW@example.com"})
	assert.True(t, svcErr.Is(err, svcErr.KindConflict))

	_, err = svc.Register(ctx, user.RegisterInput{Email: "   "})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	role, err := svc.RoleOf(ctx, "new@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, db.RoleBasic, role)

	_, err = svc.FindByEmail(ctx, "ghost@example.com")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestList_AttachesPremiumRequested(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := user.NewUserService(env.App)

	testutil.SeedUser(t, env.DB, "asked@example.com", "Asked", db.RoleBasic)
	testutil.SeedUser(t, env.DB, "quiet@example.com", "Quiet", db.RoleBasic)
	testutil.SeedUser(t, env.DB, "noprofile@example.com", "None", db.RoleBasic)
	testutil.SeedProfile(t, env.DB, db.Profile{BiodataID: 1, ContactEmail: "asked@example.com", PremiumRequested: true})
	testutil.SeedProfile(t, env.DB, db.Profile{BiodataID: 2, ContactEmail: "quiet@example.com"})

	res, err := svc.List(context.Background(), pagination.New(1, 10), "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	assert.Equal(t, 1, res.TotalPages)

	flags := map[string]bool{}
	for _, u := range res.Data {
		flags[u.Email] = u.PremiumRequested
	}
	assert.Equal(t, map[string]bool{
		"asked@example.com":     true,
		"quiet@example.com":     false,
		"noprofile@example.com": false,
	}, flags)

	res, err = svc.List(context.Background(), pagination.New(1, 10), "nobody-matches")
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Total)
	assert.Equal(t, 0, res.TotalPages)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestMakeAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := user.NewUserService(env.App)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.DB, "a@example.com", "A", db.RoleBasic)

	changed, err := svc.MakeAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.MakeAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = svc.MakeAdmin(ctx, "missing")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func requestedPair(t *testing.T, env *testutil.Env, email string) (*db.User, *db.Profile) {
	t.Helper()
	u := testutil.SeedUser(t, env.DB, email, "Member", db.RoleBasic)
	p := testutil.SeedProfile(t, env.DB, db.Profile{BiodataID: 1, ContactEmail: email, PremiumRequested: true})
	return u, p
}

func TestApprovePremium_SetsBothFlagsThenConflicts(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := user.NewUserService(env.App)
	ctx := context.Background()
	u, p := requestedPair(t, env, "member@example.com")

	require.NoError(t, svc.ApprovePremium(ctx, u.ID))

	gotUser, err := repository.NewUserRepository(env.DB).FindByID(ctx, u.ID)
	require.NoError(t, err)
	gotProfile, err := repository.NewProfileRepository(env.DB).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, db.RolePremium, gotUser.Role)
	assert.True(t, gotProfile.PremiumApproved)

	err = svc.ApprovePremium(ctx, u.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindConflict))
	assert.Equal(t, "User is already premium", svcErr.PublicMessage(err))
}

func TestApprovePremium_Preconditions(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := user.NewUserService(env.App)
	ctx := context.Background()

	err := svc.ApprovePremium(ctx, "missing")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	noProfile := testutil.SeedUser(t, env.DB, "np@example.com", "NP", db.RoleBasic)
	err = svc.ApprovePremium(ctx, noProfile.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindInvalidState))

	notAsked := testutil.SeedUser(t, env.DB, "na@example.com", "NA", db.RoleBasic)
	testutil.SeedProfile(t, env.DB, db.Profile{BiodataID: 2, ContactEmail: "na@example.com"})
	err = svc.ApprovePremium(ctx, notAsked.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindInvalidState))

	admin := testutil.SeedUser(t, env.DB, "adm@example.com", "Adm", db.RoleAdmin)
	testutil.SeedProfile(t, env.DB, db.Profile{BiodataID: 3, ContactEmail: "adm@example.com", PremiumRequested: true})
	err = svc.ApprovePremium(ctx, admin.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindInvalidState))

	// nothing changed on failure
	got, err := repository.NewProfileRepository(env.DB).FindByEmail(ctx, "na@example.com")
	require.NoError(t, err)
	assert.False(t, got.PremiumApproved)
}

func TestApprovePremium_ConcurrentApprovalsOneWins(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := user.NewUserService(env.App)
	u, _ := requestedPair(t, env, "race@example.com")

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.ApprovePremium(context.Background(), u.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case svcErr.Is(err, svcErr.KindConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestHTTP_RoleGatedRoutes(t *testing.T) {
	env := testutil.NewEnv(t)
	router := server.NewRouter(env.App.Config, env.App.Logger, user.NewRegistrar(env.App))

	testutil.SeedUser(t, env.DB, "admin@example.com", "Admin", db.RoleAdmin)
	premium := testutil.SeedUser(t, env.DB, "premium@example.com", "Premium", db.RolePremium)
	member, _ := requestedPair(t, env, "member@example.com")

	do := func(method, path, email, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		if email != "" {
			env.Tokens.Authorize(req, email)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/users", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(http.MethodGet, "/users", "premium@example.com", "").Code)

	rec := do(http.MethodGet, "/users?page=1&limit=2&search=example", "admin@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page pagination.Result[user.Listed]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Data, 2)

	path := fmt.Sprintf("/users/%s/make-premium", member.ID)
	assert.Equal(t, http.StatusForbidden, do(http.MethodPatch, path, "premium@example.com", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodPatch, path, "admin@example.com", "").Code)
	assert.Equal(t, http.StatusConflict, do(http.MethodPatch, path, "admin@example.com", "").Code)

	rec = do(http.MethodPatch, fmt.Sprintf("/users/%s/make-admin", premium.ID), "admin@example.com", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/users/role/PREMIUM@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"role":"admin"}`, rec.Body.String())

	rec = do(http.MethodGet, "/users/role/ghost@example.com", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"role":null}`, rec.Body.String())

	assert.Equal(t, http.StatusCreated, do(http.MethodPost, "/users", "", `{"email":"fresh@example.com","name":"Fresh"}`).Code)
	assert.Equal(t, http.StatusConflict, do(http.MethodPost, "/users", "", `{"email":"fresh@example.com"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/users", "", `{"email":`).Code)
}
