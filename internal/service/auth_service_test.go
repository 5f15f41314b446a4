package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/callcenter-service/internal/config"
	"github.com/spec-kit/callcenter-service/internal/domain"
)

func newAuthService(attempts *fakeAttempts) (*AuthService, *memUserRepo) {
	users := newMemUserRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret",
			TokenTTLHours:      24,
			BcryptCost:         bcrypt.MinCost,
			LoginMaxAttempts:   3,
			LoginWindowSeconds: 60,
		},
	}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:         users,
		LoginAttemptRepo: attempts,
	}, zap.NewNop())
	return svc, users
}

func TestLoginIssuesParseableToken(t *testing.T) {
	svc, users := newAuthService(newFakeAttempts())
	seeded := seedUser(t, users, "carla", domain.RoleAgent)

	user, token, exp, err := svc.Login(context.Background(), "carla", "s3cret", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.Subject)
	assert.Equal(t, "carla", claims.Username)
	assert.Equal(t, domain.RoleAgent, claims.Role)
}

func TestLoginUnknownUserAndBadPasswordLookTheSame(t *testing.T) {
	svc, users := newAuthService(newFakeAttempts())
	seedUser(t, users, "carla", domain.RoleAgent)

	_, _, _, errUnknown := svc.Login(context.Background(), "nobody", "s3cret", "10.0.0.1")
	_, _, _, errBadPass := svc.Login(context.Background(), "carla", "wrong", "10.0.0.1")

	requireDomainCode(t, errUnknown, "UNAUTHORIZED")
	requireDomainCode(t, errBadPass, "UNAUTHORIZED")
	assert.Equal(t, errUnknown.Error(), errBadPass.Error())
}

func TestLoginRateLimitKicksInAfterMaxAttempts(t *testing.T) {
	attempts := newFakeAttempts()
	svc, users := newAuthService(attempts)
	seedUser(t, users, "carla", domain.RoleAgent)

	for i := 0; i < 3; i++ {
		_, _, _, err := svc.Login(context.Background(), "carla", "wrong", "10.0.0.1")
		requireDomainCode(t, err, "UNAUTHORIZED")
	}

	_, _, _, err := svc.Login(context.Background(), "carla", "s3cret", "10.0.0.1")
	requireDomainCode(t, err, "TOO_MANY_REQUESTS")
}

func TestLoginRateLimitIsPerUserAndIP(t *testing.T) {
	attempts := newFakeAttempts()
	svc, users := newAuthService(attempts)
	seedUser(t, users, "carla", domain.RoleAgent)

	for i := 0; i < 4; i++ {
		_, _, _, _ = svc.Login(context.Background(), "carla", "wrong", "10.0.0.1")
	}

	// a different source address is not throttled
	_, _, _, err := svc.Login(context.Background(), "carla", "s3cret", "10.0.0.2")
	require.NoError(t, err)
}

func TestLoginSuccessResetsAttemptCounter(t *testing.T) {
	attempts := newFakeAttempts()
	svc, users := newAuthService(attempts)
	seedUser(t, users, "carla", domain.RoleAgent)

	for i := 0; i < 2; i++ {
		_, _, _, _ = svc.Login(context.Background(), "carla", "wrong", "10.0.0.1")
	}
	_, _, _, err := svc.Login(context.Background(), "carla", "s3cret", "10.0.0.1")
	require.NoError(t, err)

	// counter restarted, failures allowed again
	for i := 0; i < 2; i++ {
		_, _, _, err := svc.Login(context.Background(), "carla", "wrong", "10.0.0.1")
		requireDomainCode(t, err, "UNAUTHORIZED")
	}
}

func TestBootstrapAdminCreatesAccountOnce(t *testing.T) {
	svc, users := newAuthService(newFakeAttempts())

	cfg := config.BootstrapConfig{AdminUsername: "root", AdminPassword: "changeme"}
	require.NoError(t, svc.BootstrapAdmin(context.Background(), cfg))

	admin, err := users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	// second run is a no-op
	require.NoError(t, svc.BootstrapAdmin(context.Background(), cfg))
	listed, err := users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestBootstrapAdminSkippedWithoutCredentials(t *testing.T) {
	svc, users := newAuthService(newFakeAttempts())

	require.NoError(t, svc.BootstrapAdmin(context.Background(), config.BootstrapConfig{}))
	listed, err := users.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}
