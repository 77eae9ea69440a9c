package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedGormLogger(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs, func()) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	return NewGormLogger(level, 200*time.Millisecond), logs, restore
}

func TestGormLoggerTraceError(t *testing.T) {
	gl, logs, restore := observedGormLogger(gormlogger.Warn)
	defer restore()

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO members VALUES (?)", 0
	}, errors.New("disk full"))

	entries := logs.FilterMessage("db_query").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["verb"] != "INSERT" {
		t.Fatalf("expected verb INSERT, got %v", fields["verb"])
	}
}

func TestGormLoggerDemotesRecordNotFound(t *testing.T) {
	gl, logs, restore := observedGormLogger(gormlogger.Warn)
	defer restore()

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM members WHERE whop_user_id = ?", 0
	}, gormlogger.ErrRecordNotFound)

	if got := logs.FilterMessage("db_query").Len(); got != 0 {
		t.Fatalf("expected no entries for record-not-found at warn level, got %d", got)
	}
}

func TestGormLoggerSlowQuery(t *testing.T) {
	gl, logs, restore := observedGormLogger(gormlogger.Warn)
	defer restore()

	gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT COUNT(*) FROM members", 1
	}, nil)

	entries := logs.FilterMessage("db_query").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Fatalf("expected warn level, got %s", entries[0].Level)
	}
}

func TestStatementVerb(t *testing.T) {
	cases := map[string]string{
		"SELECT 1":                        "SELECT",
		"  update members set email = ?":  "UPDATE",
		"WITH cte AS (SELECT 1) SELECT 1": "SELECT",
		"PRAGMA journal_mode":             "OTHER",
		"":                                "OTHER",
	}
	for sql, want := range cases {
		if got := statementVerb(sql); got != want {
			t.Fatalf("statementVerb(%q) = %q, want %q", sql, got, want)
		}
	}
}

func TestTruncateSQLCollapsesWhitespace(t *testing.T) {
	got := truncateSQL("SELECT *\n\t FROM members")
	if got != "SELECT * FROM members" {
		t.Fatalf("unexpected sql %q", got)
	}

	long := "SELECT " + strings.Repeat("x", maxLoggedSQLLen)
	if got := truncateSQL(long); len(got) != maxLoggedSQLLen+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated sql, got length %d", len(got))
	}
}
