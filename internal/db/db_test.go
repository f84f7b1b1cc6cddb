package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/lotworks/recontrack/internal/config"
	"github.com/lotworks/recontrack/internal/models"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{
		Driver:   "mysql",
		Host:     "10.0.0.5",
		Port:     3307,
		User:     "recon",
		Password: "secret",
		Database: "recon_dearborn",
	})
	for _, want := range []string{"recon:secret@", "tcp(10.0.0.5:3307)", "/recon_dearborn", "parseTime=true"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestConnect_SqliteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recon.db")
	gdb, err := Connect(config.DBConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range AllModels() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	if _, err := Connect(config.DBConfig{Driver: "postgres"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSeedDetailers_Upsert(t *testing.T) {
	gdb, err := Connect(config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "recon.db")})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	seed := []config.DetailerConfig{{Name: "Marcus", Email: "m@x.com"}, {Name: "Elena"}}
	if err := SeedDetailers(gdb, seed); err != nil {
		t.Fatalf("SeedDetailers: %v", err)
	}
	// Re-seeding with changed contact info updates, not duplicates.
	seed[0].Email = "marcus@x.com"
	if err := SeedDetailers(gdb, seed); err != nil {
		t.Fatalf("SeedDetailers again: %v", err)
	}

	var count int64
	gdb.Model(&models.Detailer{}).Count(&count)
	if count != 2 {
		t.Errorf("detailer count = %d, want 2", count)
	}
	var marcus models.Detailer
	gdb.Where("name = ?", "Marcus").First(&marcus)
	if marcus.Email != "marcus@x.com" {
		t.Errorf("Email = %q after upsert", marcus.Email)
	}
}

func TestReset(t *testing.T) {
	gdb, err := Connect(config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "recon.db")})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	gdb.Create(&models.Detailer{Name: "Marcus"})

	if err := Reset(gdb); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	var count int64
	gdb.Model(&models.Detailer{}).Count(&count)
	if count != 0 {
		t.Errorf("detailer count after reset = %d, want 0", count)
	}
}
