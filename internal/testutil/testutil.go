// Package testutil provides shared fixtures for package tests: an isolated
// in-memory SQLite database, a miniredis-backed cache and a wired AppContext.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/cache"
	"github.com/oggyb/loveknot/internal/config"
	"github.com/oggyb/loveknot/internal/db"
	"github.com/oggyb/loveknot/internal/logger"
	"github.com/oggyb/loveknot/internal/payment"
	"github.com/oggyb/loveknot/internal/repository"
)

// NewDB spins up an in-memory SQLite DB private to the test and applies migrations.
// A single connection serializes access so concurrent tests never hit SQLITE_LOCKED.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// Config returns a config with the same defaults the service ships with.
func Config() *config.Config {
	cfg := &config.Config{}
	cfg.App.ENV = "test"
	cfg.App.OpTimeout = 5 * time.Second
	cfg.HTTP.AllowedOrigins = []string{"*"}
	cfg.Payment.Currency = "usd"
	cfg.Access = config.AccessConfig{
		UserAdminRoles:    []string{"admin"},
		UserListRoles:     []string{"admin"},
		ContactAdminRoles: []string{"admin"},
	}
	return cfg
}

// Env bundles the pieces a service test needs.
type Env struct {
	App      *app.AppContext
	DB       *gorm.DB
	Redis    *miniredis.Miniredis
	Payments *payment.MemoryGateway
	Tokens   *TokenIssuer
}

// NewEnv wires an AppContext over fresh in-memory stores. Payment
// verification is off unless the test turns it on via cfg.
func NewEnv(t *testing.T, mutate ...func(*config.Config)) *Env {
	t.Helper()

	cfg := Config()
	for _, m := range mutate {
		m(cfg)
	}

	database := NewDB(t)
	rc, mr := NewRedis(t)
	log := logger.Discard()

	tokens := NewTokenIssuer(t)
	policy, err := access.NewPolicy(cfg.Access)
	require.NoError(t, err)
	gate := access.NewGate(tokens.Verifier(), repository.NewUserRepository(database), policy, log)

	payments := payment.NewMemoryGateway()
	return &Env{
		App:      app.New(cfg, database, rc, log, gate, payments),
		DB:       database,
		Redis:    mr,
		Payments: payments,
		Tokens:   tokens,
	}
}

// SeedUser inserts a user with the given role.
func SeedUser(t *testing.T, database *gorm.DB, email, name string, role db.Role) *db.User {
	t.Helper()

	u := &db.User{Email: email, Name: name, Role: role}
	require.NoError(t, repository.NewUserRepository(database).Create(context.Background(), u))
	return u
}

// SeedProfile inserts a profile directly, bypassing id allocation.
func SeedProfile(t *testing.T, database *gorm.DB, p db.Profile) *db.Profile {
	t.Helper()

	if p.BiodataType == "" {
		p.BiodataType = db.BiodataMale
	}
	require.NoError(t, repository.NewProfileRepository(database).Create(context.Background(), &p))
	return &p
}
