package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	cases := map[string]struct {
		want    int64
		wantErr bool
	}{
		"5":     {want: 500},
		"12.5":  {want: 1250},
		"0.01":  {want: 1},
		"0":     {want: 0},
		"1.005": {wantErr: true},
		"-3":    {wantErr: true},
	}
	for in, tc := range cases {
		got, err := ToMinor(decimal.RequireFromString(in))
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAmount, in)
			continue
		}
		require.NoError(t, err, in)
		assert.Equal(t, tc.want, got, in)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	ok, err := g.CreateIntent(ctx, 500, "usd")
	require.NoError(t, err)
	g.Put(Intent{ID: "pi_pending", Status: "requires_payment_method", Amount: 500})

	_, err = Verify(ctx, g, ok.ID, 500)
	assert.NoError(t, err)
	_, err = Verify(ctx, g, ok.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount, "a zero amount never matches a paid intent")

	_, err = Verify(ctx, g, ok.ID, 700)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	_, err = Verify(ctx, g, "pi_pending", 500)
	assert.ErrorIs(t, err, ErrNotSucceeded)

	_, err = Verify(ctx, g, "pi_nope", 500)
	assert.ErrorIs(t, err, ErrIntentNotFound)
}
