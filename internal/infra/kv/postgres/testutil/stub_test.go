package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	_, err := conn.ExecContext(ctx, "INSERT INTO state(bucket, payload) VALUES($1, $2) ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload", []driver.NamedValue{
		{Value: "memorized"},
		{Value: []byte("[]")},
	})
	if err != nil {
		t.Fatalf("ExecContext insert: %v", err)
	}
	if got := conn.Rows("state")["memorized"]; string(got) != "[]" {
		t.Fatalf("expected state row to be stored, got %q", got)
	}

	rows, err := conn.QueryContext(ctx, "SELECT payload FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "memorized"}})
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(dest[0].([]byte)) != "[]" {
		t.Fatalf("unexpected row value: %v", dest)
	}

	if _, err := conn.ExecContext(ctx, "DELETE FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "memorized"}}); err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if len(conn.Rows("state")) != 0 {
		t.Fatalf("expected row deleted")
	}
}
