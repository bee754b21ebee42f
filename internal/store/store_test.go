package store

import (
	"errors"
	"testing"
	"time"

	"github.com/keval/invo/internal/models"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("initialize store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPut_Idempotent(t *testing.T) {
	s := setupStore(t)

	rec := models.Record{"id": "c1", "company_id": "T1", "name": "Acme"}
	if err := s.Put("customers", rec); err != nil {
		t.Fatalf("first put: %v", err)
	}

	rec["name"] = "Acme Ltd"
	if err := s.Put("customers", rec); err != nil {
		t.Fatalf("second put: %v", err)
	}

	recs, err := s.GetAllForTenant("customers", "T1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records: got %d, want 1", len(recs))
	}
	if got := recs[0]["name"]; got != "Acme Ltd" {
		t.Fatalf("name: got %v, want second write to win", got)
	}
}

func TestPut_RequiresID(t *testing.T) {
	s := setupStore(t)

	err := s.Put("customers", models.Record{"company_id": "T1"})
	if err == nil {
		t.Fatal("expected error for record with no id")
	}
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %T", err)
	}
}

func TestPut_UnknownTable(t *testing.T) {
	s := setupStore(t)

	err := s.Put("ledgers", models.Record{"id": "x"})
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %T", err)
	}
}

func TestGetAllForTenant_Isolation(t *testing.T) {
	s := setupStore(t)

	must(t, s.Put("vendors", models.Record{"id": "v1", "company_id": "tenantA"}))
	must(t, s.Put("vendors", models.Record{"id": "v2", "company_id": "tenantB"}))
	must(t, s.Put("vendors", models.Record{"id": "v3", "company_id": "tenantA"}))

	recs, err := s.GetAllForTenant("vendors", "tenantA")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	for _, r := range recs {
		if r.CompanyID() != "tenantA" {
			t.Fatalf("leaked record %s from %s", r.ID(), r.CompanyID())
		}
	}
}

func TestGetAllForTenant_LineItemsUnfiltered(t *testing.T) {
	s := setupStore(t)

	must(t, s.Put("invoice_items", models.Record{"id": "li1", "invoice_id": "INV1"}))
	must(t, s.Put("invoice_items", models.Record{"id": "li2", "invoice_id": "INV2"}))

	// No tenant column: every row comes back regardless of the tenant asked for
	recs, err := s.GetAllForTenant("invoice_items", "whoever")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2 (unfiltered)", len(recs))
	}
}

func TestGetByID(t *testing.T) {
	s := setupStore(t)

	must(t, s.Put("products", models.Record{"id": "p1", "company_id": "T1", "price": 9.5}))

	rec, err := s.GetByID("products", "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil || rec.ID() != "p1" {
		t.Fatalf("got %v, want p1", rec)
	}

	absent, err := s.GetByID("products", "nope")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if absent != nil {
		t.Fatalf("absent id should return nil, got %v", absent)
	}
}

func TestDelete_AbsentIsNoop(t *testing.T) {
	s := setupStore(t)

	if err := s.Delete("payments", "ghost"); err != nil {
		t.Fatalf("deleting absent id should not error: %v", err)
	}

	must(t, s.Put("payments", models.Record{"id": "pay1", "company_id": "T1"}))
	must(t, s.Delete("payments", "pay1"))

	rec, err := s.GetByID("payments", "pay1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatal("record should be gone")
	}
}

func TestClearTableAndClearAll(t *testing.T) {
	s := setupStore(t)

	must(t, s.Put("customers", models.Record{"id": "c1", "company_id": "T1"}))
	must(t, s.Put("units", models.Record{"id": "u1", "company_id": "T1"}))

	must(t, s.ClearTable("customers"))
	recs, _ := s.GetAllForTenant("customers", "T1")
	if len(recs) != 0 {
		t.Fatalf("customers should be empty, got %d", len(recs))
	}
	recs, _ = s.GetAllForTenant("units", "T1")
	if len(recs) != 1 {
		t.Fatalf("units should be untouched, got %d", len(recs))
	}

	must(t, s.ClearAll())
	recs, _ = s.GetAllForTenant("units", "T1")
	if len(recs) != 0 {
		t.Fatalf("units should be empty after ClearAll, got %d", len(recs))
	}
}

func TestPutAll(t *testing.T) {
	s := setupStore(t)

	recs := []models.Record{
		{"id": "i1", "company_id": "T1"},
		{"id": "i2", "company_id": "T1"},
		{"id": "i3", "company_id": "T2"},
	}
	if err := s.PutAll("invoices", recs); err != nil {
		t.Fatalf("put all: %v", err)
	}

	got, err := s.GetAllForTenant("invoices", "T1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records: got %d, want 2", len(got))
	}
}

func TestSyncMeta(t *testing.T) {
	s := setupStore(t)

	last, err := s.LastSyncTime("T1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if last != nil {
		t.Fatalf("never-synced tenant should have nil, got %v", last)
	}

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	must(t, s.SetLastSyncTime("T1", first))
	must(t, s.SetLastSyncTime("T2", first.Add(time.Hour)))

	// Upsert: the same tenant's row is replaced, not duplicated
	second := first.Add(2 * time.Hour)
	must(t, s.SetLastSyncTime("T1", second))

	got, err := s.LastSyncTime("T1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || !got.Equal(second) {
		t.Fatalf("last sync: got %v, want %v", got, second)
	}

	other, _ := s.LastSyncTime("T2")
	if other == nil || !other.Equal(first.Add(time.Hour)) {
		t.Fatalf("T2 meta clobbered: got %v", other)
	}

	must(t, s.ClearSyncMeta())
	got, _ = s.LastSyncTime("T1")
	if got != nil {
		t.Fatalf("meta should be cleared, got %v", got)
	}
}

func TestReopen_Persists(t *testing.T) {
	dir := t.TempDir()

	s, err := Initialize(dir)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	must(t, s.Put("customers", models.Record{"id": "c1", "company_id": "T1"}))
	s.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	rec, err := s2.GetByID("customers", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil {
		t.Fatal("record should survive reopen")
	}
}

func TestOpen_MissingCache(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("opening a missing cache should error")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
