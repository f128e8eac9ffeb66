package migrations

import (
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x String) ENGINE = Memory;

-- second
CREATE TABLE b (y String DEFAULT 'it''s') ENGINE = Memory;
`
	stmts, err := SplitStatements(input)
	if err != nil {
		t.Fatalf("SplitStatements failed: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x String) ENGINE = Memory" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitStatements_RejectsSemicolonInString(t *testing.T) {
	_, err := SplitStatements(`INSERT INTO t VALUES ('a;b');`)
	if err == nil {
		t.Error("expected error for semicolon inside string literal")
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	if err != nil || len(pg) == 0 {
		t.Fatalf("postgres migrations: %v %v", pg, err)
	}
	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil || len(ch) == 0 {
		t.Fatalf("clickhouse migrations: %v %v", ch, err)
	}

	data, err := ClickhouseFS.ReadFile("clickhouse/" + ch[0])
	if err != nil {
		t.Fatalf("read %s: %v", ch[0], err)
	}
	stmts, err := SplitStatements(string(data))
	if err != nil {
		t.Fatalf("split %s: %v", ch[0], err)
	}
	if len(stmts) == 0 {
		t.Errorf("%s has no statements", ch[0])
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/arena")
	if err != nil || db != "arena" {
		t.Errorf("got %q, %v", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}
