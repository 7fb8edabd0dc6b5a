package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"infra driver", InfraImportForbidden, "travelbook/internal/infra/kv/sqlite", true},
		{"infra root", InfraImportForbidden, "travelbook/internal/infra", true},
		{"kv facade", InfraImportForbidden, "travelbook/internal/kv", false},
		{"sqlite", DriverImportForbidden, "modernc.org/sqlite", true},
		{"pgx stdlib", DriverImportForbidden, "github.com/jackc/pgx/v5/stdlib", true},
		{"s3", DriverImportForbidden, "github.com/aws/aws-sdk-go-v2/service/s3", true},
		{"prefix lookalike", DriverImportForbidden, "modernc.org/sqlitex", false},
		{"uuid", DriverImportForbidden, "github.com/google/uuid", false},
		{"internal", InternalImportForbidden, "travelbook/internal/records", true},
		{"pkg", InternalImportForbidden, "travelbook/pkg/domain", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s: pred(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
	both := AnyOf(InfraImportForbidden, DriverImportForbidden)
	if !both("github.com/redis/go-redis/v9") || both("log/slog") {
		t.Fatalf("AnyOf did not combine predicates")
	}
}

type recordingT struct{ msgs []string }

func (r *recordingT) Fatalf(format string, args ...any) {
	r.msgs = append(r.msgs, fmt.Sprintf(format, args...))
}

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "ok.go", "package tmp\nimport \"fmt\"\nfunc X() { fmt.Println(1) }\n")
	writeGo(t, dir, "bad.go", "package tmp\nimport _ \"modernc.org/sqlite\"\n")
	writeGo(t, dir, "bad_test.go", "package tmp\nimport _ \"github.com/jackc/pgx/v5/stdlib\"\n")
	writeGo(t, dir, "notes.txt", "import \"modernc.org/sqlite\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeGo(t, filepath.Join(dir, "sub"), "sub.go", "package sub\nimport _ \"github.com/redis/go-redis/v9\"\n")

	viols, err := directImportViolations(dir, DriverImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "modernc.org/sqlite (in bad.go)" {
		t.Fatalf("unexpected violations: %v", viols)
	}

	rec := &recordingT{}
	failIfViolations(rec, "direct imports", "drivers", viols)
	if len(rec.msgs) != 1 || !strings.Contains(rec.msgs[0], "bad.go") {
		t.Fatalf("expected one failure mentioning bad.go, got %v", rec.msgs)
	}

	if _, err := directImportViolations(filepath.Join(dir, "missing"), DriverImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	writeGo(t, dir, "broken.go", "package tmp\nimport (\n")
	if _, err := directImportViolations(dir, DriverImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	old := goListDeps
	defer func() { goListDeps = old }()

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\ntravelbook/internal/kv\n\ntravelbook/internal/infra/kv/redis\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", InfraImportForbidden)
	if err != nil || len(viols) != 1 || viols[0] != "travelbook/internal/infra/kv/redis" {
		t.Fatalf("unexpected result: %v %v", viols, err)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, out, err := transitiveDependencyViolations("./...", InfraImportForbidden); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list failure to surface")
	}
}
