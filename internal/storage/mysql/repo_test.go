package mysql

import (
	"strings"
	"testing"
)

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent("end"); got != "`end`" {
		t.Errorf("quoteIdent(end) = %s", got)
	}
	if got := quoteIdent("we`ird"); got != "`we``ird`" {
		t.Errorf("quoteIdent escape = %s", got)
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	ddl, err := BuildCreateTableSQL("uploads", []string{"batch", "start", "end"})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS `uploads`") {
		t.Errorf("missing guarded create: %s", ddl)
	}
	if !strings.Contains(ddl, "`end` TEXT") {
		t.Errorf("expected quoted end column, got: %s", ddl)
	}

	if _, err := BuildCreateTableSQL("", []string{"a"}); err == nil {
		t.Error("expected error for empty table name")
	}
	if _, err := BuildCreateTableSQL("uploads", nil); err == nil {
		t.Error("expected error for empty column list")
	}
}
