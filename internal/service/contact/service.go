package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/db"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/payment"
	"github.com/oggyb/loveknot/internal/repository"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// NotAvailable fills snapshot fields the profile left empty.
const NotAvailable = "N/A"

var errTransactionUsed = svcErr.AlreadyExists("transactionId has already been used")

// Service implements the paid contact-disclosure workflow:
// pending on creation, approved by an administrator, deleted to reject.
type Service struct {
	appCtx   *app.AppContext
	requests *repository.ContactRequestRepository
	profiles *repository.ProfileRepository
	now      func() time.Time
}

func NewContactService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		requests: repository.NewContactRequestRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is the body of POST /contact-requests.
// BiodataID is the target profile's internal id, not its public number.
type CreateInput struct {
	UserEmail     string          `json:"userEmail"`
	BiodataID     string          `json:"biodataId"`
	TransactionID string          `json:"transactionId"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
}

// View is a contact request as shown to its requester.
//
// Snapshot holds the details frozen at creation; Current is the target
// profile as it is now, nil when the profile no longer exists. While the
// request is pending both carry the name only.
type View struct {
	ID            string              `json:"id"`
	BiodataID     int64               `json:"biodataId"`
	Status        db.RequestStatus    `json:"status"`
	TransactionID string              `json:"transactionId"`
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	RequestedAt   time.Time           `json:"requestedAt"`
	Snapshot      db.ContactSnapshot  `json:"snapshot"`
	Current       *db.ContactSnapshot `json:"current"`
}

// CreateRequest records a pending request for the contact details of a profile.
//
// Behavior:
//   - userEmail defaults to the caller and must match it otherwise.
//   - transactionId is required and single-use: a reused one → Conflict.
//   - amountPaid must not be negative; with intent verification on it must
//     be positive and match a succeeded intent named by transactionId.
//   - Unknown profile → NotFound, nothing written.
//   - The profile's name, mobile number and contact email are copied into
//     the request and never refreshed; empty ones become "N/A".
func (s *Service) CreateRequest(ctx context.Context, caller access.Identity, in CreateInput) (*db.ContactRequest, error) {
	s.appCtx.Logger.Debug("CreateRequest called", "caller", caller.Email, "profile", in.BiodataID)

	userEmail := repository.NormalizeEmail(in.UserEmail)
	if userEmail == "" {
		userEmail = caller.Email
	}
	if userEmail != caller.Email {
		return nil, svcErr.Forbidden("cannot create a contact request for another user")
	}
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.TransactionID == "" {
		return nil, svcErr.InvalidArgument("transactionId is required")
	}
	if in.AmountPaid.IsNegative() {
		return nil, svcErr.InvalidArgument("amountPaid must not be negative")
	}

	target, err := s.profiles.FindByID(ctx, strings.TrimSpace(in.BiodataID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("Biodata not found")
	}
	if err != nil {
		s.appCtx.Logger.Error("FindByID failed", "err", err)
		return nil, svcErr.Map(err)
	}

	used, err := s.requests.ExistsByTransactionID(ctx, in.TransactionID)
	if err != nil {
		s.appCtx.Logger.Error("ExistsByTransactionID failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if used {
		return nil, errTransactionUsed
	}

	if err := s.verifyPayment(ctx, in); err != nil {
		return nil, err
	}

	req := &db.ContactRequest{
		UserEmail:     userEmail,
		BiodataID:     target.BiodataID,
		TransactionID: in.TransactionID,
		AmountPaid:    in.AmountPaid,
		Status:        db.StatusPending,
		RequestedAt:   s.now(),
		Snapshot: db.ContactSnapshot{
			Name:         orNA(target.Name),
			MobileNumber: orNA(target.MobileNumber),
			ContactEmail: orNA(target.ContactEmail),
		},
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errTransactionUsed
		}
		s.appCtx.Logger.Error("contact request insert failed", "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("contact request created", "id", req.ID, "biodata_id", req.BiodataID, "user", userEmail)
	return req, nil
}

func (s *Service) verifyPayment(ctx context.Context, in CreateInput) error {
	if !s.appCtx.Config.Payment.VerifyIntents {
		return nil
	}
	if s.appCtx.Payments == nil {
		return svcErr.Internal(payment.ErrNoGateway)
	}
	if !in.AmountPaid.IsPositive() {
		return svcErr.InvalidArgument("amountPaid must be greater than zero")
	}

	minor, err := payment.ToMinor(in.AmountPaid)
	if err != nil {
		return svcErr.InvalidArgument(err.Error())
	}
	_, err = payment.Verify(ctx, s.appCtx.Payments, in.TransactionID, minor)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, payment.ErrIntentNotFound):
		return svcErr.InvalidArgument("transactionId does not match any payment")
	case errors.Is(err, payment.ErrNotSucceeded), errors.Is(err, payment.ErrAmountMismatch):
		s.appCtx.Logger.Warn("payment verification failed", "transaction", in.TransactionID, "err", err)
		return svcErr.InvalidArgument(err.Error())
	default:
		s.appCtx.Logger.Error("payment lookup failed", "transaction", in.TransactionID, "err", err)
		return svcErr.Internal(err)
	}
}

// ApproveRequest moves a pending request to approved. An unknown id and an
// already approved request are both NotFound.
func (s *Service) ApproveRequest(ctx context.Context, id string) error {
	s.appCtx.Logger.Debug("ApproveRequest called", "id", id)

	n, err := s.requests.Approve(ctx, id)
	if err != nil {
		s.appCtx.Logger.Error("Approve failed", "err", err)
		return svcErr.Map(err)
	}
	if n == 0 {
		return svcErr.NotFound("Request not found or already approved")
	}
	return nil
}

// ListForUser pages through the requests made by userEmail, oldest first.
//
// Behavior:
//   - The caller must be the requester or hold the contact administration role.
//   - Each row carries the frozen snapshot and the profile's current details,
//     resolved in one batched lookup by biodata id.
//   - Mobile number and email are withheld until the request is approved.
func (s *Service) ListForUser(
	ctx context.Context,
	caller access.Identity,
	userEmail string,
	p pagination.Params,
) (pagination.Result[View], error) {
	s.appCtx.Logger.Debug("ListForUser called", "caller", caller.Email, "user", userEmail)

	userEmail = repository.NormalizeEmail(userEmail)
	if err := s.ownerOrAdmin(ctx, caller, userEmail); err != nil {
		return pagination.Result[View]{}, err
	}

	rows, total, err := s.requests.ListForUser(ctx, userEmail, p)
	if err != nil {
		s.appCtx.Logger.Error("ListForUser failed", "err", err)
		return pagination.Result[View]{}, svcErr.Map(err)
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.BiodataID)
	}
	current, err := s.profiles.FindByBiodataIDs(ctx, ids)
	if err != nil {
		s.appCtx.Logger.Error("FindByBiodataIDs failed", "err", err)
		return pagination.Result[View]{}, svcErr.Map(err)
	}

	views := make([]View, len(rows))
	for i, r := range rows {
		views[i] = toView(r, current)
	}
	return pagination.NewResult(views, total, p), nil
}

// ListAll pages through every request, newest first.
func (s *Service) ListAll(ctx context.Context, p pagination.Params) (pagination.Result[db.ContactRequest], error) {
	rows, total, err := s.requests.ListAll(ctx, p)
	if err != nil {
		s.appCtx.Logger.Error("ListAll contact requests failed", "err", err)
		return pagination.Result[db.ContactRequest]{}, svcErr.Map(err)
	}
	return pagination.NewResult(rows, total, p), nil
}

// DeleteRequest removes a request regardless of its status. The caller must
// be the requester or a contact administrator. A missing id deletes nothing
// and is not an error.
func (s *Service) DeleteRequest(ctx context.Context, caller access.Identity, id string) (int64, error) {
	s.appCtx.Logger.Debug("DeleteRequest called", "caller", caller.Email, "id", id)

	req, err := s.requests.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if err := s.ownerOrAdmin(ctx, caller, req.UserEmail); err != nil {
		return 0, err
	}

	n, err := s.requests.Delete(ctx, id)
	if err != nil {
		s.appCtx.Logger.Error("Delete contact request failed", "err", err)
		return 0, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("contact request deleted", "id", id, "deleted", n)
	return n, nil
}

func (s *Service) ownerOrAdmin(ctx context.Context, caller access.Identity, owner string) error {
	if caller.Email == owner {
		return nil
	}
	_, err := s.appCtx.Gate.Authorize(ctx, caller, access.OpAdministerContactRequests)
	return err
}

func toView(r db.ContactRequest, profiles map[int64]db.Profile) View {
	v := View{
		ID:            r.ID,
		BiodataID:     r.BiodataID,
		Status:        r.Status,
		TransactionID: r.TransactionID,
		AmountPaid:    r.AmountPaid,
		RequestedAt:   r.RequestedAt,
		Snapshot:      r.Snapshot,
	}
	if p, ok := profiles[r.BiodataID]; ok {
		v.Current = &db.ContactSnapshot{
			Name:         orNA(p.Name),
			MobileNumber: orNA(p.MobileNumber),
			ContactEmail: orNA(p.ContactEmail),
		}
	}
	if r.Status != db.StatusApproved {
		v.Snapshot = withheld(v.Snapshot)
		if v.Current != nil {
			c := withheld(*v.Current)
			v.Current = &c
		}
	}
	return v
}

func withheld(c db.ContactSnapshot) db.ContactSnapshot {
	return db.ContactSnapshot{Name: c.Name}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
