package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/db"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// ContactRequestRepository provides data access methods for contact requests.
type ContactRequestRepository struct {
	db *gorm.DB
}

func NewContactRequestRepository(database *gorm.DB) *ContactRequestRepository {
	return &ContactRequestRepository{db: database}
}

func (r *ContactRequestRepository) Create(ctx context.Context, req *db.ContactRequest) error {
	req.UserEmail = NormalizeEmail(req.UserEmail)
	return r.db.WithContext(ctx).Create(req).Error
}

// ExistsByTransactionID reports whether a payment reference was already spent.
func (r *ContactRequestRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.ContactRequest{}).
		Where("transaction_id = ?", transactionID).
		Count(&n).Error
	return n > 0, err
}

func (r *ContactRequestRepository) FindByID(ctx context.Context, id string) (*db.ContactRequest, error) {
	var req db.ContactRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve moves a pending request to approved.
//
// Behavior:
//   - Only rows with status = pending are touched.
//   - Returns 0 when the id is unknown or the request was already approved;
//     callers treat both the same way.
func (r *ContactRequestRepository) Approve(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.ContactRequest{}).
		Where("id = ? AND status = ?", id, db.StatusPending).
		Update("status", db.StatusApproved)
	return res.RowsAffected, res.Error
}

// Delete removes the request and reports how many rows went away.
func (r *ContactRequestRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.ContactRequest{})
	return res.RowsAffected, res.Error
}

// ListForUser paginates a requester's contact requests, oldest first.
func (r *ContactRequestRepository) ListForUser(
	ctx context.Context,
	userEmail string,
	p pagination.Params,
) ([]db.ContactRequest, int64, error) {
	return Paginate[db.ContactRequest](ctx, r.db, p,
		Where("user_email = ?", NormalizeEmail(userEmail)),
		"requested_at ASC, id ASC",
	)
}

// ListAll paginates every contact request, newest first.
func (r *ContactRequestRepository) ListAll(
	ctx context.Context,
	p pagination.Params,
) ([]db.ContactRequest, int64, error) {
	return Paginate[db.ContactRequest](ctx, r.db, p, nil, "requested_at DESC, id DESC")
}

// ApprovedAmounts returns amount_paid of every approved request.
func (r *ContactRequestRepository) ApprovedAmounts(ctx context.Context) ([]decimal.Decimal, error) {
	var rows []struct {
		AmountPaid decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&db.ContactRequest{}).
		Select("amount_paid").
		Where("status = ?", db.StatusApproved).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	amounts := make([]decimal.Decimal, 0, len(rows))
	for _, row := range rows {
		amounts = append(amounts, row.AmountPaid)
	}
	return amounts, nil
}
