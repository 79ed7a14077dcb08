package cache

import (
	"context"
	"testing"

	"github.com/nike-storefront/internal/config"
	"github.com/nike-storefront/internal/models"
)

func TestDisabledStoreIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, store := range []*Store{nil, NewStore(nil), NewStore(&config.RedisConfig{Enabled: false})} {
		if store.Enabled() {
			t.Fatalf("store should be disabled")
		}
		if err := store.SetJSON(ctx, "k", map[string]int{"a": 1}, 0); err != nil {
			t.Fatalf("set on disabled store failed: %v", err)
		}
		var dest map[string]int
		hit, err := store.GetJSON(ctx, "k", &dest)
		if err != nil || hit {
			t.Fatalf("disabled store should miss, hit=%v err=%v", hit, err)
		}
		if err := store.InvalidateProduct(ctx, 3); err != nil {
			t.Fatalf("invalidate on disabled store failed: %v", err)
		}
		if store.Client() != nil {
			t.Fatalf("disabled store should not expose a client")
		}
	}
}

func TestStoreKeyPrefix(t *testing.T) {
	store := &Store{prefix: "shop"}
	if got := store.Key(ProductDetailKey(9)); got != "shop:product:detail:9" {
		t.Fatalf("key mismatch: %s", got)
	}
	if got := (*Store)(nil).Key(" "); got != "nk" {
		t.Fatalf("empty key should be prefix only, got %s", got)
	}
}

func TestBuildAuthStates(t *testing.T) {
	if BuildUserAuthState(nil) != nil {
		t.Fatalf("nil user should build nil state")
	}
	state := BuildUserAuthState(&models.User{ID: 4, Status: "active", TokenVersion: 2})
	if state.UserID != 4 || state.TokenVersion != 2 || state.Status != "active" {
		t.Fatalf("unexpected user state: %+v", state)
	}
	admin := BuildAdminAuthState(&models.Admin{ID: 1, Username: "root", IsSuper: true})
	if admin.AdminID != 1 || !admin.IsSuper {
		t.Fatalf("unexpected admin state: %+v", admin)
	}
}
