package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/oggyb/loveknot/internal/config"
)

// StatusSucceeded is the intent status of a captured payment.
const StatusSucceeded = "succeeded"

var (
	// ErrIntentNotFound is returned by GetIntent for unknown ids.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrNoGateway means intent verification is on but nothing can verify.
	ErrNoGateway = errors.New("payment verification is enabled but no gateway key is configured")
)

// Intent is the subset of a charge intent this service reads.
// Amount is in the currency's minor unit (cents).
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

func (i Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// Gateway creates and reads chargeable intents.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
}

// StripeGateway is the Gateway backed by Stripe PaymentIntents.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway returns nil when no secret key is configured.
func NewStripeGateway(secretKey string) *StripeGateway {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil
	}
	return &StripeGateway{api: client.New(secretKey, nil)}
}

// FromConfig picks the gateway for cfg: Stripe when a key is set, the
// in-memory gateway in development, otherwise none. Having no gateway while
// intent verification is on is a configuration error.
func FromConfig(cfg *config.Config) (Gateway, error) {
	if g := NewStripeGateway(cfg.Payment.SecretKey); g != nil {
		return g, nil
	}
	if cfg.IsDevelopment() {
		return NewMemoryGateway(), nil
	}
	if cfg.Payment.VerifyIntents {
		return nil, ErrNoGateway
	}
	return nil, nil
}

// CreateIntent creates a card payment intent for amountMinor.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return Intent{}, fmt.Errorf("payment intent %s: %w", id, ErrIntentNotFound)
		}
		return Intent{}, fmt.Errorf("get payment intent %s: %w", id, err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}
