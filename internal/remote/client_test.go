package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keval/invo/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "key-123", "device-abc")
}

func TestSelectAllByTenant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/companies/T1/customers" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
			t.Errorf("auth header: got %q", got)
		}
		if got := r.Header.Get("X-Device-ID"); got != "device-abc" {
			t.Errorf("device header: got %q", got)
		}
		json.NewEncoder(w).Encode([]models.Record{
			{"id": "c1", "company_id": "T1"},
			{"id": "c2", "company_id": "T1"},
		})
	})

	recs, err := c.SelectAllByTenant(context.Background(), "customers", "T1")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) != 2 || recs[0].ID() != "c1" {
		t.Fatalf("got %v", recs)
	}
}

func TestSelectAll_NoTenantSegment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/invoice_items" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]models.Record{{"id": "li1", "invoice_id": "INV1"}})
	})

	recs, err := c.SelectAll(context.Background(), "invoice_items")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %v", recs)
	}
}

func TestInsert(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/v1/invoices" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var rec models.Record
		json.NewDecoder(r.Body).Decode(&rec)
		rec["number"] = "2026-001" // server-assigned
		json.NewEncoder(w).Encode(rec)
	})

	saved, err := c.Insert(context.Background(), "invoices", models.Record{"id": "INV1", "company_id": "T1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved["number"] != "2026-001" {
		t.Fatalf("expected server fields back, got %v", saved)
	}
}

func TestUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" || r.URL.Path != "/v1/invoices/INV1" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.Record{"id": "INV1", "total": 600})
	})

	saved, err := c.Update(context.Background(), "invoices", "INV1", models.Record{"total": 600})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.ID() != "INV1" {
		t.Fatalf("got %v", saved)
	}
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" || r.URL.Path != "/v1/products/p1" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.Delete(context.Background(), "products", "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{http.StatusForbidden, "forbidden", ErrForbidden},
		{http.StatusNotFound, "not_found", ErrNotFound},
	}

	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"code": tt.code, "message": "nope"})
		})
		err := c.Delete(context.Background(), "products", "p1")
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestUnstructuredErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})

	err := c.Delete(context.Background(), "products", "p1")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPlainBody404StillMapsToNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	err := c.Delete(context.Background(), "products", "p1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestHealthCheck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
	})

	resp, err := c.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status: got %q", resp.Status)
	}
}
