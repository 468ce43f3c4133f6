package contact_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/config"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/payment"
	"github.com/oggyb/loveknot/internal/server"
	"github.com/oggyb/loveknot/internal/service/contact"
	"github.com/oggyb/loveknot/internal/testutil"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

var buyer = access.Identity{Subject: "uid-buyer", Email: "buyer@example.com"}

func seedTarget(t *testing.T, env *testutil.Env) *db.Profile {
	t.Helper()
	return testutil.SeedProfile(t, env.DB, db.Profile{
		BiodataID:    7,
		ContactEmail: "target@example.com",
		Name:         "Target",
		MobileNumber: "+8801700000000",
	})
}

func countRequests(t *testing.T, env *testutil.Env) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(&db.ContactRequest{}).Count(&n).Error)
	return n
}

func TestCreateRequest_SnapshotsTarget(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)

	req, err := svc.CreateRequest(context.Background(), buyer, contact.CreateInput{
		BiodataID:     target.ID,
		TransactionID: "pi_manual",
		AmountPaid:    decimal.RequireFromString("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, req.Status)
	assert.EqualValues(t, 7, req.BiodataID)
	assert.Equal(t, "buyer@example.com", req.UserEmail)
	assert.Equal(t, db.ContactSnapshot{Name: "Target", MobileNumber: "+8801700000000", ContactEmail: "target@example.com"}, req.Snapshot)
	assert.False(t, req.RequestedAt.IsZero())
}

func TestCreateRequest_MissingFieldsBecomeNA(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	target := testutil.SeedProfile(t, env.DB, db.Profile{BiodataID: 1, ContactEmail: "bare@example.com"})

	req, err := svc.CreateRequest(context.Background(), buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: "tx"})
	require.NoError(t, err)
	assert.Equal(t, contact.NotAvailable, req.Snapshot.Name)
	assert.Equal(t, contact.NotAvailable, req.Snapshot.MobileNumber)
	assert.Equal(t, "bare@example.com", req.Snapshot.ContactEmail)
}

func TestCreateRequest_UnknownProfileWritesNothing(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)

	_, err := svc.CreateRequest(context.Background(), buyer, contact.CreateInput{
		BiodataID:     "6f1c2a1e-0000-4000-8000-000000000000",
		TransactionID: "pi_x",
	})
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
	assert.EqualValues(t, 0, countRequests(t, env))
}

func TestCreateRequest_Validation(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)
	ctx := context.Background()

	_, err := svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: target.ID})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: "tx", AmountPaid: decimal.NewFromInt(-1)})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = svc.CreateRequest(ctx, buyer, contact.CreateInput{UserEmail: "someone@example.com", BiodataID: target.ID, TransactionID: "tx"})
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))

	assert.EqualValues(t, 0, countRequests(t, env))
}

func TestCreateRequest_VerifiesPaymentWhenEnabled(t *testing.T) {
	env := testutil.NewEnv(t, func(c *config.Config) { c.Payment.VerifyIntents = true })
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)
	ctx := context.Background()

	paid, err := env.Payments.CreateIntent(ctx, 500, "usd")
	require.NoError(t, err)
	env.Payments.Put(payment.Intent{ID: "pi_unpaid", Status: "requires_payment_method", Amount: 500})

	in := func(tx, amount string) contact.CreateInput {
		return contact.CreateInput{BiodataID: target.ID, TransactionID: tx, AmountPaid: decimal.RequireFromString(amount)}
	}

	_, err = svc.CreateRequest(ctx, buyer, in("pi_unknown", "5"))
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
	_, err = svc.CreateRequest(ctx, buyer, in("pi_unpaid", "5"))
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
	_, err = svc.CreateRequest(ctx, buyer, in(paid.ID, "9"))
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
	assert.EqualValues(t, 0, countRequests(t, env))

	_, err = svc.CreateRequest(ctx, buyer, in(paid.ID, "5.00"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, countRequests(t, env))
}

func TestCreateRequest_PaymentIsSingleUse(t *testing.T) {
	env := testutil.NewEnv(t, func(c *config.Config) { c.Payment.VerifyIntents = true })
	svc := contact.NewContactService(env.App)
	first := seedTarget(t, env)
	second := testutil.SeedProfile(t, env.DB, db.Profile{BiodataID: 8, ContactEmail: "second@example.com", Name: "Second"})
	other := access.Identity{Subject: "uid-other", Email: "other@example.com"}
	ctx := context.Background()

	paid, err := env.Payments.CreateIntent(ctx, 500, "usd")
	require.NoError(t, err)

	_, err = svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: first.ID, TransactionID: paid.ID, AmountPaid: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: second.ID, TransactionID: paid.ID, AmountPaid: decimal.NewFromInt(5)})
	assert.True(t, svcErr.Is(err, svcErr.KindConflict), "same payment for another profile")

	_, err = svc.CreateRequest(ctx, other, contact.CreateInput{BiodataID: first.ID, TransactionID: paid.ID, AmountPaid: decimal.NewFromInt(5)})
	assert.True(t, svcErr.Is(err, svcErr.KindConflict), "same payment by another user")

	fresh, err := env.Payments.CreateIntent(ctx, 500, "usd")
	require.NoError(t, err)
	_, err = svc.CreateRequest(ctx, other, contact.CreateInput{BiodataID: first.ID, TransactionID: fresh.ID})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation), "zero amount is rejected while verifying")

	assert.EqualValues(t, 1, countRequests(t, env))
}

func TestCreateRequest_TransactionIDIsSingleUseWithoutVerification(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)
	ctx := context.Background()

	_, err := svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: "tx-1"})
	require.NoError(t, err)
	_, err = svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: " tx-1 "})
	assert.True(t, svcErr.Is(err, svcErr.KindConflict))
	assert.Equal(t, "transactionId has already been used", svcErr.PublicMessage(err))
}

func TestCreateRequest_VerificationWithoutGatewayFails(t *testing.T) {
	env := testutil.NewEnv(t, func(c *config.Config) { c.Payment.VerifyIntents = true })
	env.App.Payments = nil
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)

	_, err := svc.CreateRequest(context.Background(), buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: "tx", AmountPaid: decimal.NewFromInt(5)})
	assert.True(t, svcErr.Is(err, svcErr.KindInternal))
	assert.EqualValues(t, 0, countRequests(t, env))
}

func TestApproveRequest(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: "tx"})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveRequest(ctx, req.ID))

	err = svc.ApproveRequest(ctx, req.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound), "already approved")
	err = svc.ApproveRequest(ctx, "missing")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestListForUser_SnapshotIsFrozenAndPendingIsWithheld(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: "tx"})
	require.NoError(t, err)

	res, err := svc.ListForUser(ctx, buyer, "buyer@example.com", pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, db.ContactSnapshot{Name: "Target"}, res.Data[0].Snapshot, "pending hides contact details")

	// profile edited after the request was made
	require.NoError(t, env.DB.Model(&db.Profile{}).Where("id = ?", target.ID).
		Updates(map[string]any{"name": "Renamed", "mobile_number": "+8801999999999"}).Error)
	require.NoError(t, svc.ApproveRequest(ctx, req.ID))

	res, err = svc.ListForUser(ctx, buyer, "BUYER@example.com", pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	view := res.Data[0]
	assert.Equal(t, db.StatusApproved, view.Status)
	assert.Equal(t, db.ContactSnapshot{Name: "Target", MobileNumber: "+8801700000000", ContactEmail: "target@example.com"}, view.Snapshot)
	require.NotNil(t, view.Current)
	assert.Equal(t, "Renamed", view.Current.Name)
	assert.Equal(t, "+8801999999999", view.Current.MobileNumber)

	// dangling reference
	require.NoError(t, env.DB.Where("id = ?", target.ID).Delete(&db.Profile{}).Error)
	res, err = svc.ListForUser(ctx, buyer, "buyer@example.com", pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Nil(t, res.Data[0].Current)
	assert.Equal(t, "Target", res.Data[0].Snapshot.Name)
}

func TestListForUser_Access(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	testutil.SeedUser(t, env.DB, "admin@example.com", "Admin", db.RoleAdmin)
	testutil.SeedUser(t, env.DB, "nosy@example.com", "Nosy", db.RolePremium)
	ctx := context.Background()

	_, err := svc.ListForUser(ctx, access.Identity{Email: "nosy@example.com"}, "buyer@example.com", pagination.New(1, 10))
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))

	res, err := svc.ListForUser(ctx, access.Identity{Email: "admin@example.com"}, "buyer@example.com", pagination.New(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Total)
	assert.Empty(t, res.Data)
}

func TestDeleteRequest(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := contact.NewContactService(env.App)
	target := seedTarget(t, env)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, buyer, contact.CreateInput{BiodataID: target.ID, TransactionID: "tx"})
	require.NoError(t, err)
	require.NoError(t, svc.ApproveRequest(ctx, req.ID))

	_, err = svc.DeleteRequest(ctx, access.Identity{Email: "stranger@example.com"}, req.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindForbidden))

	n, err := svc.DeleteRequest(ctx, buyer, req.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "approved requests can be deleted too")

	n, err = svc.DeleteRequest(ctx, buyer, req.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestHTTP_AdminRoutes(t *testing.T) {
	env := testutil.NewEnv(t)
	router := server.NewRouter(env.App.Config, env.App.Logger, contact.NewRegistrar(env.App))
	testutil.SeedUser(t, env.DB, "admin@example.com", "Admin", db.RoleAdmin)
	testutil.SeedUser(t, env.DB, "buyer@example.com", "Buyer", db.RoleBasic)
	target := seedTarget(t, env)

	body := `{"biodataId":"` + target.ID + `","transactionId":"pi_1","amountPaid":5}`
	req := env.Tokens.Authorize(httptest.NewRequest(http.MethodPost, "/contact-requests", strings.NewReader(body)), "buyer@example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		InsertedID string `json:"insertedId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, env.Tokens.Authorize(httptest.NewRequest(http.MethodGet, "/contact-requests", nil), "buyer@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, env.Tokens.Authorize(httptest.NewRequest(http.MethodGet, "/contact-requests?page=1&limit=5", nil), "admin@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	var all pagination.Result[db.ContactRequest]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.EqualValues(t, 1, all.Total)
	require.Len(t, all.Data, 1)
	assert.True(t, decimal.NewFromInt(5).Equal(all.Data[0].AmountPaid))

	approve := httptest.NewRequest(http.MethodPatch, "/contact-requests/approve/"+created.InsertedID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, env.Tokens.Authorize(approve, "buyer@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	approve = httptest.NewRequest(http.MethodPatch, "/contact-requests/approve/"+created.InsertedID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, env.Tokens.Authorize(approve, "admin@example.com"))
	assert.Equal(t, http.StatusOK, rec.Code)

	approve = httptest.NewRequest(http.MethodPatch, "/contact-requests/approve/"+created.InsertedID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, env.Tokens.Authorize(approve, "admin@example.com"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, env.Tokens.Authorize(httptest.NewRequest(http.MethodGet, "/contact-requests/buyer@example.com", nil), "buyer@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	var mine pagination.Result[contact.View]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine.Data, 1)
	assert.Equal(t, "+8801700000000", mine.Data[0].Snapshot.MobileNumber)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, env.Tokens.Authorize(httptest.NewRequest(http.MethodDelete, "/contact-requests/"+created.InsertedID, nil), "buyer@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deletedCount":1}`, rec.Body.String())
}
