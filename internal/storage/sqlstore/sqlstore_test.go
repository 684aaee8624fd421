package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/familybudget/internal/categoryreset"
	"github.com/mmynk/familybudget/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// createFamily registers a family with a verified owner and the default categories.
func createFamily(t *testing.T, store *Store, name string) (*models.Family, *models.User) {
	t.Helper()

	family := &models.Family{Name: name}
	owner := models.NewUser("", strings.ToLower(name)+"@example.com", name+" Owner", "hash")
	var categories []*models.Category
	for _, d := range categoryreset.Defaults {
		categories = append(categories, &models.Category{Name: d.Name, Icon: d.Icon, Color: d.Color})
	}

	if err := store.RegisterFamily(context.Background(), family, owner, categories); err != nil {
		t.Fatalf("RegisterFamily failed: %v", err)
	}
	return family, owner
}

func createOverview(t *testing.T, store *Store, familyID, name string) *models.MonthlyOverview {
	t.Helper()

	ov := &models.MonthlyOverview{FamilyID: familyID, Name: name}
	if err := store.CreateOverview(context.Background(), ov); err != nil {
		t.Fatalf("CreateOverview(%s) failed: %v", name, err)
	}
	return ov
}

func categoryID(t *testing.T, store *Store, familyID, name string) string {
	t.Helper()

	categories, err := store.ListCategories(context.Background(), familyID)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	for _, c := range categories {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not found", name)
	return ""
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func TestRebind(t *testing.T) {
	query := "UPDATE t SET a = ? WHERE b = ? AND c = ?"

	if got := DialectSQLite.rebind(query); got != query {
		t.Errorf("sqlite rebind changed query: %s", got)
	}

	want := "UPDATE t SET a = $1 WHERE b = $2 AND c = $3"
	if got := DialectPostgres.rebind(query); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestForUpdate(t *testing.T) {
	query := "SELECT 1 FROM families WHERE id = ?"

	if got := DialectSQLite.forUpdate(query); got != query {
		t.Errorf("sqlite forUpdate changed query: %s", got)
	}
	if got := DialectPostgres.forUpdate(query); got != query+" FOR UPDATE" {
		t.Errorf("postgres forUpdate = %q", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		wantPath string
		wantDSN  string
	}{
		{"plain path", "./data/budget.db", "./data/budget.db",
			"./data/budget.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"existing query", "/tmp/budget.db?_txlock=immediate", "/tmp/budget.db",
			"/tmp/budget.db?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file uri", "file:/tmp/budget.db", "/tmp/budget.db",
			"file:/tmp/budget.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, dsn, err := sqliteDSN(tt.dsn)
			if err != nil {
				t.Fatalf("sqliteDSN failed: %v", err)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
			if dsn != tt.wantDSN {
				t.Errorf("dsn = %q, want %q", dsn, tt.wantDSN)
			}
		})
	}

	for _, dsn := range []string{":memory:", "", "file::memory:?cache=shared", "file:budget?mode=memory"} {
		if _, _, err := sqliteDSN(dsn); err == nil {
			t.Errorf("sqliteDSN(%q): expected an error", dsn)
		}
	}
}

func TestOpenWithQueryString(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	store, err := Open(DialectSQLite, dbPath+"?_txlock=immediate")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	family, _ := createFamily(t, store, "Query")
	createOverview(t, store, family.ID, "Now")
}

func TestOpenUnknownDialect(t *testing.T) {
	if _, err := Open(Dialect("oracle"), "whatever"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestMigrationsAreReentrant(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	defer second.Close()

	if err := second.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
