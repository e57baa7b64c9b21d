package db

import (
	"strings"
	"testing"
)

func TestGetDialect(t *testing.T) {
	tests := []DatabaseType{DatabaseSQLite, ""}

	for _, dbType := range tests {
		t.Run(string(dbType), func(t *testing.T) {
			d := GetDialect(dbType)
			if d.Name() != "sqlite" {
				t.Errorf("GetDialect(%q).Name() = %q, want %q", dbType, d.Name(), "sqlite")
			}
		})
	}
}

func TestSQLiteDialect_InitStatements(t *testing.T) {
	d := &SQLiteDialect{}
	stmts := d.InitStatements()
	if len(stmts) == 0 {
		t.Fatal("expected init statements (PRAGMAs)")
	}
	foundWAL, foundFK := false, false
	for _, s := range stmts {
		if strings.Contains(s, "WAL") {
			foundWAL = true
		}
		if strings.Contains(s, "foreign_keys") {
			foundFK = true
		}
	}
	if !foundWAL {
		t.Error("init statements should include WAL mode")
	}
	if !foundFK {
		t.Error("init statements should include foreign_keys pragma")
	}
}
