package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
dealership: Mission Ford of Dearborn
data_dir: /var/lib/recontrack

db:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: recon
  password: secret
  database: recon_dearborn

server:
  port: 9090

detailers:
  - name: Marcus
    email: marcus@example.com
    phone: "313-555-0101"
  - name: Elena

notify:
  command: "notify-send 'Recon' '{{.Subject}}'"
  slack:
    token: xoxb-test
    channel: C123

schedule:
  snapshot_cron: "0 2 * * *"
`

const minimalYAML = `
dealership: Test Lot
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Dealership != "Mission Ford of Dearborn" {
		t.Errorf("Dealership = %q", cfg.Dealership)
	}
	if cfg.DataDir != "/var/lib/recontrack" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.DB.Driver != "mysql" {
		t.Errorf("DB.Driver = %q, want mysql", cfg.DB.Driver)
	}
	if cfg.DB.Host != "10.0.0.5" || cfg.DB.Port != 3307 {
		t.Errorf("DB host/port = %s:%d", cfg.DB.Host, cfg.DB.Port)
	}
	if cfg.DB.Database != "recon_dearborn" {
		t.Errorf("DB.Database = %q", cfg.DB.Database)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Detailers) != 2 || cfg.Detailers[0].Name != "Marcus" {
		t.Errorf("Detailers = %+v", cfg.Detailers)
	}
	if cfg.Notify.Slack.Channel != "C123" {
		t.Errorf("Notify.Slack.Channel = %q", cfg.Notify.Slack.Channel)
	}
	if cfg.Schedule.SnapshotCron != "0 2 * * *" {
		t.Errorf("Schedule.SnapshotCron = %q", cfg.Schedule.SnapshotCron)
	}
}

func TestParse_MinimalDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Errorf("DB.Driver = %q, want sqlite", cfg.DB.Driver)
	}
	want := filepath.Join("./data", "recontrack.db")
	if cfg.DB.Path != want {
		t.Errorf("DB.Path = %q, want %q", cfg.DB.Path, want)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.UploadsDir() != filepath.Join("./data", "uploads") {
		t.Errorf("UploadsDir = %q", cfg.UploadsDir())
	}
	if cfg.ArchiveDir() != filepath.Join("./data", "archive") {
		t.Errorf("ArchiveDir = %q", cfg.ArchiveDir())
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("db:\n  driver: mysql\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.Host != "127.0.0.1" || cfg.DB.Port != 3306 {
		t.Errorf("mysql defaults = %s:%d", cfg.DB.Host, cfg.DB.Port)
	}
	if cfg.DB.User != "root" || cfg.DB.Database != "recontrack" {
		t.Errorf("mysql defaults user/db = %s/%s", cfg.DB.User, cfg.DB.Database)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad driver", "db:\n  driver: postgres\n", "db.driver"},
		{"unnamed detailer", "detailers:\n  - email: x@y.com\n", "detailers[0].name"},
		{"slack channel missing", "notify:\n  slack:\n    token: xoxb-1\n", "notify.slack.channel"},
		{"discord channel missing", "notify:\n  discord:\n    token: abc\n", "notify.discord.channel"},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recon.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dealership != "Test Lot" {
		t.Errorf("Dealership = %q", cfg.Dealership)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DB.Driver != "sqlite" || cfg.Server.Port != 8080 {
		t.Errorf("Default() = %+v", cfg)
	}
}
