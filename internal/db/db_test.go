package db

import (
	"strings"
	"testing"
)

func TestApplySQLiteDefaults(t *testing.T) {
	got := applySQLiteDefaults("file.db")
	for _, want := range []string{
		"_txlock=immediate",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("dsn %q missing %q", got, want)
		}
	}
	if !strings.HasPrefix(got, "file.db?") {
		t.Fatalf("dsn %q does not start with file.db?", got)
	}
}

func TestApplySQLiteDefaults_KeepsExplicitSettings(t *testing.T) {
	dsn := "file.db?_txlock=deferred&_pragma=busy_timeout(100)"
	if got := applySQLiteDefaults(dsn); got != dsn {
		t.Fatalf("dsn = %q, want %q unchanged", got, dsn)
	}

	got := applySQLiteDefaults("file.db?_pragma=journal_mode(DELETE)")
	if !strings.Contains(got, "_txlock=immediate") {
		t.Fatalf("dsn %q missing _txlock=immediate", got)
	}
	if strings.Contains(got, "busy_timeout") {
		t.Fatalf("dsn %q overrode caller pragmas", got)
	}
}
