package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/oggyb/loveknot/internal/app"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	gw "github.com/oggyb/loveknot/internal/payment"
)

// Service creates chargeable intents on the configured gateway.
type Service struct {
	appCtx *app.AppContext
}

func NewPaymentService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// IntentInput is the body of POST /create-payment-intent.
// Amount is in whole currency units, e.g. 5 or 5.50.
type IntentInput struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreateIntent creates a card intent for amount and returns its client secret.
//
// Behavior:
//   - amount must be positive with at most two decimal places.
//   - The gateway is charged in minor units (amount × 100) in the configured currency.
//   - No gateway configured → Internal.
func (s *Service) CreateIntent(ctx context.Context, in IntentInput) (string, error) {
	s.appCtx.Logger.Debug("CreateIntent called", "amount", in.Amount.String())

	if !in.Amount.IsPositive() {
		return "", svcErr.InvalidArgument("amount must be greater than zero")
	}
	minor, err := gw.ToMinor(in.Amount)
	if err != nil {
		return "", svcErr.InvalidArgument(err.Error())
	}
	if s.appCtx.Payments == nil {
		return "", svcErr.Internal(errors.New("payment gateway not configured"))
	}

	intent, err := s.appCtx.Payments.CreateIntent(ctx, minor, s.appCtx.Config.Payment.Currency)
	if err != nil {
		s.appCtx.Logger.Error("payment intent failed", "amount_minor", minor, "err", err)
		return "", svcErr.Internal(err)
	}
	s.appCtx.Logger.Info("payment intent created", "intent", intent.ID, "amount_minor", minor)
	return intent.ClientSecret, nil
}
