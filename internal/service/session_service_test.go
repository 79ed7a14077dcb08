package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nike-storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentityPrefersUser(t *testing.T) {
	f := newServiceFixture(t)
	seedGuest(t, f.db, "tok-user-wins")

	identity, err := f.session.ResolveIdentity(context.Background(), 42, "tok-user-wins")
	require.NoError(t, err)
	assert.True(t, identity.Owner.Equal(models.UserOwner(42)))
	assert.False(t, identity.Minted)
	assert.Empty(t, identity.GuestToken)
}

func TestResolveIdentityMintsAndReuses(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.session.ResolveIdentity(ctx, 0, "")
	require.NoError(t, err)
	require.True(t, first.Minted)
	require.True(t, first.Owner.IsGuest())
	require.NotEmpty(t, first.GuestToken)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), first.ExpiresAt, time.Minute)

	second, err := f.session.ResolveIdentity(ctx, 0, first.GuestToken)
	require.NoError(t, err)
	assert.False(t, second.Minted)
	assert.True(t, second.Owner.Equal(first.Owner))
}

func TestResolveIdentityReplacesExpiredGuest(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	expired := &models.Guest{SessionToken: "tok-expired", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, f.db.Create(expired).Error)

	identity, err := f.session.ResolveIdentity(ctx, 0, "tok-expired")
	require.NoError(t, err)
	assert.True(t, identity.Minted)
	assert.NotEqual(t, "tok-expired", identity.GuestToken)

	var count int64
	require.NoError(t, f.db.Model(&models.Guest{}).Where("session_token = ?", "tok-expired").Count(&count).Error)
	assert.Zero(t, count, "expired guest should be deleted lazily")
}

func TestResolveIdentityUnknownTokenMintsNew(t *testing.T) {
	f := newServiceFixture(t)
	identity, err := f.session.ResolveIdentity(context.Background(), 0, "does-not-exist")
	require.NoError(t, err)
	assert.True(t, identity.Minted)
}

func TestResolveIdentityMintFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.session.newToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := f.session.ResolveIdentity(context.Background(), 0, "")
	require.ErrorIs(t, err, ErrGuestSessionUnavailable)
	assert.True(t, IsRetryable(err))
}

func TestLookupGuestDoesNotMint(t *testing.T) {
	f := newServiceFixture(t)
	guest, err := f.session.LookupGuest(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, guest)

	var count int64
	require.NoError(t, f.db.Model(&models.Guest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPurgeExpiredRemovesGuestCarts(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	variant := seedVariant(t, f.db, "Court Vision", "CV-1", "70.00", "")

	stale := &models.Guest{SessionToken: "tok-stale", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, f.db.Create(stale).Error)
	fresh := seedGuest(t, f.db, "tok-fresh")

	staleCart, err := f.cart.GetOrCreateCart(ctx, models.GuestOwner(stale.ID))
	require.NoError(t, err)
	require.NoError(t, f.cart.AddItem(ctx, staleCart.ID, variant.ID, 1))
	_, err = f.cart.GetOrCreateCart(ctx, models.GuestOwner(fresh.ID))
	require.NoError(t, err)

	purged, err := f.session.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	var carts, items int64
	require.NoError(t, f.db.Model(&models.Cart{}).Count(&carts).Error)
	require.NoError(t, f.db.Model(&models.CartItem{}).Count(&items).Error)
	assert.EqualValues(t, 1, carts)
	assert.Zero(t, items)
}

func TestLookupGuestDropsExpiredGuestCart(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	variant := seedVariant(t, f.db, "Blazer Mid", "BZ-1", "100.00", "")

	expired := &models.Guest{SessionToken: "tok-lazy", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, f.db.Create(expired).Error)
	cart, err := f.cart.GetOrCreateCart(ctx, models.GuestOwner(expired.ID))
	require.NoError(t, err)
	require.NoError(t, f.cart.AddItem(ctx, cart.ID, variant.ID, 3))

	guest, err := f.session.LookupGuest(ctx, "tok-lazy")
	require.NoError(t, err)
	assert.Nil(t, guest)

	var guests, carts, items int64
	require.NoError(t, f.db.Model(&models.Guest{}).Count(&guests).Error)
	require.NoError(t, f.db.Model(&models.Cart{}).Count(&carts).Error)
	require.NoError(t, f.db.Model(&models.CartItem{}).Count(&items).Error)
	assert.Zero(t, guests)
	assert.Zero(t, carts)
	assert.Zero(t, items)
}

func TestPurgeExpiredCollectsOrphanedGuestCarts(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	variant := seedVariant(t, f.db, "Dunk Low", "DL-1", "110.00", "")

	gone := seedGuest(t, f.db, "tok-gone")
	orphan, err := f.cart.GetOrCreateCart(ctx, models.GuestOwner(gone.ID))
	require.NoError(t, err)
	require.NoError(t, f.cart.AddItem(ctx, orphan.ID, variant.ID, 2))
	require.NoError(t, f.db.Delete(&models.Guest{}, gone.ID).Error)

	live := seedGuest(t, f.db, "tok-live")
	kept, err := f.cart.GetOrCreateCart(ctx, models.GuestOwner(live.ID))
	require.NoError(t, err)
	require.NoError(t, f.cart.AddItem(ctx, kept.ID, variant.ID, 1))

	_, err = f.session.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)

	var carts []models.Cart
	require.NoError(t, f.db.Find(&carts).Error)
	require.Len(t, carts, 1)
	assert.Equal(t, kept.ID, carts[0].ID)

	var items int64
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("cart_id = ?", orphan.ID).Count(&items).Error)
	assert.Zero(t, items)
}
