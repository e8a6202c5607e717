// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/middleware"
)

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string]*RefreshToken{}}
}

func (m *memoryTokens) Create(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.CreatedAt = time.Now()
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *memoryTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryTokens) MarkAsUsed(_ context.Context, id, replacedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return core.ErrNotFound
	}
	t.IsUsed = true
	t.ReplacedByID = &replacedBy
	return nil
}

func (m *memoryTokens) RevokeByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memoryTokens) RevokeByFamilyID(_ context.Context, familyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.FamilyID == familyID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memoryTokens) RevokeAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memoryTokens) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memoryUsers struct {
	byID map[string]*UserInfo
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.byID[id].PasswordHash = hash
	return nil
}

type fixture struct {
	svc    *Service
	tokens *memoryTokens
	users  *memoryUsers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	jwtManager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "asset-manager",
		Audience:           "asset-manager-api",
	})
	require.NoError(t, err)

	hash, err := core.HashPassword("correct horse battery")
	require.NoError(t, err)

	users := &memoryUsers{byID: map[string]*UserInfo{
		"u1": {ID: "u1", Email: "jane@example.com", Name: "Jane", PasswordHash: hash},
	}}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens := newMemoryTokens()

	return &fixture{
		svc:    NewService(tokens, jwtManager, users, &core.Redis{Client: rdb}),
		tokens: tokens,
		users:  users,
	}
}

func callerFor(t *testing.T, svc *Service, access string) *middleware.Caller {
	t.Helper()
	claims, err := svc.VerifyAccessToken(context.Background(), access)
	require.NoError(t, err)
	return &middleware.Caller{
		ID:        claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}
}

func TestLoginIssuesTokensWithClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{
		Email:    "Jane@Example.com",
		Password: "correct horse battery",
	}, "test", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "user", resp.User.Role)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, time.Minute)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "nope"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "nope"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery",
	}, "", "")
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	_, err = f.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrTokenReuse)

	_, err = f.svc.Refresh(ctx, second.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery",
	}, "", "")
	require.NoError(t, err)

	caller := callerFor(t, f.svc, resp.Tokens.AccessToken)
	require.NoError(t, f.svc.Logout(ctx, caller, resp.Tokens.RefreshToken))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery",
	}, "", "")
	require.NoError(t, err)
	caller := callerFor(t, f.svc, resp.Tokens.AccessToken)

	err = f.svc.ChangePassword(ctx, caller, ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "a brand new secret",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.svc.ChangePassword(ctx, caller, ChangePasswordRequest{
		CurrentPassword: "correct horse battery",
		NewPassword:     "a brand new secret",
	}))

	_, err = f.svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "a brand new secret",
	}, "", "")
	assert.NoError(t, err)

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.VerifyAccessToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}
