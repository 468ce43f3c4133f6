package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "loveknot")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.App.OpTimeout)
	assert.Equal(t, "root:root@tcp(db:3306)/loveknot?parseTime=true&charset=utf8mb4&loc=UTC", cfg.DB.DSN)
	assert.Equal(t, []string{"admin"}, cfg.Access.UserAdminRoles)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.True(t, cfg.Payment.VerifyIntents)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("MYSQL_DSN", "u:p@tcp(x:1)/y")
	t.Setenv("ACCESS_CONTACT_ADMIN_ROLES", "admin,premium")
	t.Setenv("APP_OP_TIMEOUT", "750ms")
	t.Setenv("PAYMENT_CURRENCY", " EUR ")
	t.Setenv("APP_ENV", "production")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "u:p@tcp(x:1)/y", cfg.DB.DSN)
	assert.Equal(t, []string{"admin", "premium"}, cfg.Access.ContactAdminRoles)
	assert.Equal(t, 750*time.Millisecond, cfg.App.OpTimeout)
	assert.Equal(t, "eur", cfg.Payment.Currency)
	assert.False(t, cfg.IsDevelopment())
}

func TestNew_InvalidDuration(t *testing.T) {
	t.Setenv("APP_OP_TIMEOUT", "soon")

	_, err := New()
	assert.Error(t, err)
}
