package app

import (
	"path/filepath"
	"testing"

	"github.com/memoirbase/memoirbase/internal/db"
	"github.com/memoirbase/memoirbase/internal/models"
	"github.com/memoirbase/memoirbase/internal/security"
)

func TestEnsureAdminUser_CreatesAdmin(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "memoirbase-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	if errEnsure := EnsureAdminUser(conn, "Admin@Example.com", "password123"); errEnsure != nil {
		t.Fatalf("EnsureAdminUser: %v", errEnsure)
	}

	var admin models.User
	if errFind := conn.Where("email = ?", "admin@example.com").First(&admin).Error; errFind != nil {
		t.Fatalf("find admin: %v", errFind)
	}
	if !admin.IsAdmin {
		t.Fatalf("expected created account to be admin")
	}
	if !security.VerifyPassword(admin.Password, "password123") {
		t.Fatalf("stored password hash does not verify")
	}
}

func TestEnsureAdminUser_PromotesExisting(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "memoirbase-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	hashed, errHash := security.HashPassword("original-pass")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	user := models.User{Email: "writer@example.com", Password: hashed, Active: true}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	if errEnsure := EnsureAdminUser(conn, "writer@example.com", "different-pass"); errEnsure != nil {
		t.Fatalf("EnsureAdminUser: %v", errEnsure)
	}

	var promoted models.User
	if errFind := conn.First(&promoted, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if !promoted.IsAdmin {
		t.Fatalf("expected existing account to be promoted")
	}
	// Promotion must not overwrite the existing password.
	if !security.VerifyPassword(promoted.Password, "original-pass") {
		t.Fatalf("existing password was replaced")
	}
}

func TestEnsureAdminUser_RejectsShortPassword(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "memoirbase-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	if errEnsure := EnsureAdminUser(conn, "admin@example.com", "short"); errEnsure == nil {
		t.Fatalf("expected short password to be rejected")
	}
}
