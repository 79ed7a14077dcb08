package models

import (
	"fmt"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DBOptions {
	t.Helper()
	return &DBOptions{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:models_test_%d?mode=memory&cache=shared", time.Now().UnixNano()),
		Pool:   DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1},
	}
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDB(DBOptions{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestAutoMigrateAndSeedAdmin(t *testing.T) {
	db, err := OpenDB(*openTestDB(t))
	if err != nil {
		t.Fatalf("open db failed: %v", err)
	}
	t.Cleanup(func() { _ = CloseDB(db) })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	if _, _, err := SeedDefaultAdmin(db, "admin", ""); err != ErrDefaultAdminPasswordRequired {
		t.Fatalf("expected password required error, got %v", err)
	}
	admin, created, err := SeedDefaultAdmin(db, "root", "s3cret-pass")
	if err != nil || !created || admin == nil {
		t.Fatalf("seed admin failed: admin=%v created=%v err=%v", admin, created, err)
	}
	if !admin.IsSuper || admin.Username != "root" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	_, created, err = SeedDefaultAdmin(db, "other", "another-pass")
	if err != nil || created {
		t.Fatalf("second seed must be a no-op, created=%v err=%v", created, err)
	}
}

func TestCartOwnerUniquePerUser(t *testing.T) {
	db, err := OpenDB(*openTestDB(t))
	if err != nil {
		t.Fatalf("open db failed: %v", err)
	}
	t.Cleanup(func() { _ = CloseDB(db) })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	userID, _ := UserOwner(1).Columns()
	if err := db.Create(&Cart{UserID: userID}).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	if err := db.Create(&Cart{UserID: userID}).Error; err == nil {
		t.Fatalf("expected unique violation for second cart of same user")
	}
	// 多个 guest_id/user_id 为空的行不冲突
	_, g1 := GuestOwner(1).Columns()
	_, g2 := GuestOwner(2).Columns()
	if err := db.Create(&Cart{GuestID: g1}).Error; err != nil {
		t.Fatalf("create guest cart 1 failed: %v", err)
	}
	if err := db.Create(&Cart{GuestID: g2}).Error; err != nil {
		t.Fatalf("create guest cart 2 failed: %v", err)
	}
}
