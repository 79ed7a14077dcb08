package models

import "testing"

func TestOwnerConstructors(t *testing.T) {
	user := UserOwner(7)
	if !user.Valid() || !user.IsUser() || user.IsGuest() || user.ID() != 7 {
		t.Fatalf("unexpected user owner: %+v", user)
	}
	guest := GuestOwner(9)
	if !guest.Valid() || !guest.IsGuest() || guest.IsUser() {
		t.Fatalf("unexpected guest owner: %+v", guest)
	}
	if UserOwner(0).Valid() || GuestOwner(0).Valid() || (Owner{}).Valid() {
		t.Fatalf("zero ids must produce invalid owners")
	}
}

func TestOwnerColumnsRoundTrip(t *testing.T) {
	userID, guestID := UserOwner(3).Columns()
	if userID == nil || *userID != 3 || guestID != nil {
		t.Fatalf("unexpected user columns: %v %v", userID, guestID)
	}
	if got := OwnerFromColumns(userID, guestID); !got.Equal(UserOwner(3)) {
		t.Fatalf("expected user:3, got %s", got)
	}

	userID, guestID = GuestOwner(4).Columns()
	if userID != nil || guestID == nil || *guestID != 4 {
		t.Fatalf("unexpected guest columns: %v %v", userID, guestID)
	}
	if got := OwnerFromColumns(userID, guestID); !got.Equal(GuestOwner(4)) {
		t.Fatalf("expected guest:4, got %s", got)
	}
}

func TestOwnerFromColumnsRejectsBothOrNeither(t *testing.T) {
	a, b := uint(1), uint(2)
	if OwnerFromColumns(&a, &b).Valid() {
		t.Fatalf("both columns set must be invalid")
	}
	if OwnerFromColumns(nil, nil).Valid() {
		t.Fatalf("no columns set must be invalid")
	}
}

func TestOwnerEqualDistinguishesKinds(t *testing.T) {
	if UserOwner(5).Equal(GuestOwner(5)) {
		t.Fatalf("user and guest with same id must differ")
	}
	if (Owner{}).Equal(Owner{}) {
		t.Fatalf("invalid owners never compare equal")
	}
}
