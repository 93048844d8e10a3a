package database

import (
	"testing"
)

func TestInitializeSQLite(t *testing.T) {
	db, err := Initialize("sqlite", "file:dbtest?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for _, table := range []string{"users", "admins", "transactions", "audit_entries"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestInitializeUnknownDriver(t *testing.T) {
	if _, err := Initialize("oracle", "x", false); err == nil {
		t.Fatal("expected error")
	}
}
