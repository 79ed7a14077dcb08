package service

import (
	"context"
	"testing"

	"github.com/nike-storefront/internal/cache"
	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/constants"
	"github.com/nike-storefront/internal/models"
	"github.com/nike-storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserAuthForTest(t *testing.T) (*UserAuthService, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	svc := NewUserAuthService(
		config.JWTConfig{SecretKey: "test-user-secret", ExpireHours: 2, RememberMeExpireHours: 48},
		config.PasswordPolicyConfig{MinLength: 8, MaxLength: 128, RequireNumber: true},
		repository.NewUserRepository(f.db),
		cache.NewStore(nil),
	)
	return svc, f
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserAuthForTest(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, " Runner@Example.com ", "swoosh123", "")
	require.NoError(t, err)
	assert.Equal(t, "runner@example.com", registered.User.Email)
	assert.Equal(t, "runner", registered.User.DisplayName)
	assert.NotEmpty(t, registered.Token)

	_, err = svc.Register(ctx, "runner@example.com", "swoosh123", "")
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = svc.Register(ctx, "other@example.com", "short", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = svc.Register(ctx, "not-an-email", "swoosh123", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Login(ctx, "runner@example.com", "wrong-pass1", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "swoosh123", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	short, err := svc.Login(ctx, "RUNNER@example.com", "swoosh123", false)
	require.NoError(t, err)
	long, err := svc.Login(ctx, "runner@example.com", "swoosh123", true)
	require.NoError(t, err)
	assert.True(t, long.ExpiresAt.After(short.ExpiresAt))

	claims, err := svc.ParseUserJWT(short.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	require.NoError(t, svc.ValidateClaims(ctx, claims))
}

func TestChangePasswordInvalidatesTokens(t *testing.T) {
	svc, _ := newUserAuthForTest(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, "pace@example.com", "swoosh123", "Pace")
	require.NoError(t, err)
	claims, err := svc.ParseUserJWT(registered.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, registered.User.ID, "bad-old-1", "newpass456"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, registered.User.ID, "swoosh123", "newpass456"))
	assert.ErrorIs(t, svc.ValidateClaims(ctx, claims), ErrInvalidToken)

	_, err = svc.Login(ctx, "pace@example.com", "newpass456", false)
	require.NoError(t, err)
}

func TestDisabledUserCannotLogin(t *testing.T) {
	svc, f := newUserAuthForTest(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, "off@example.com", "swoosh123", "")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", registered.User.ID).Update("status", constants.UserStatusDisabled).Error)

	_, err = svc.Login(ctx, "off@example.com", "swoosh123", false)
	assert.ErrorIs(t, err, ErrUserDisabled)
	claims, err := svc.ParseUserJWT(registered.Token)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ValidateClaims(ctx, claims), ErrUserDisabled)
}

func TestParseUserJWTRejectsForeignSecret(t *testing.T) {
	svc, _ := newUserAuthForTest(t)
	other := NewUserAuthService(config.JWTConfig{SecretKey: "other"}, config.PasswordPolicyConfig{}, nil, nil)
	token, _, err := other.GenerateUserJWT(&models.User{ID: 1, Email: "x@example.com"}, 1)
	require.NoError(t, err)
	_, err = svc.ParseUserJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newUserAuthForTest(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, "edit@example.com", "swoosh123", "")
	require.NoError(t, err)

	name := "  Fast Runner "
	image := "https://cdn.example.com/a.png"
	user, err := svc.UpdateProfile(ctx, registered.User.ID, &name, &image)
	require.NoError(t, err)
	assert.Equal(t, "Fast Runner", user.DisplayName)
	assert.Equal(t, image, user.Image)

	_, err = svc.UpdateProfile(ctx, 9999, &name, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminLogin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	_, created, err := models.SeedDefaultAdmin(f.db, "root", "admin-pass-1")
	require.NoError(t, err)
	require.True(t, created)

	svc := NewAuthService(config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 1}, repository.NewAdminRepository(f.db), cache.NewStore(nil))
	_, _, _, err = svc.Login(ctx, "root", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	admin, token, _, err := svc.Login(ctx, "root", "admin-pass-1")
	require.NoError(t, err)
	assert.NotNil(t, admin.LastLoginAt)
	claims, err := svc.ParseJWT(token)
	require.NoError(t, err)
	isSuper, err := svc.ValidateClaims(ctx, claims)
	require.NoError(t, err)
	assert.True(t, isSuper)
}
