package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/cart" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]row{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	var rows []row
	if err := client.List(context.Background(), "cart", &rows); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[1].ID != "2" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestClient_InsertEchoesAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		var in row
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		in.ID = "assigned-1"
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	var created row
	if err := client.Insert(context.Background(), "cart", row{Name: "a"}, &created); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.ID != "assigned-1" || created.Name != "a" {
		t.Fatalf("unexpected echo: %+v", created)
	}
}

func TestClient_DeleteSendsIDQuery(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", r.Method)
		}
		gotID = r.URL.Query().Get("id")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	if err := client.Delete(context.Background(), "cart", "rec 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotID != "rec 1" {
		t.Fatalf("expected id query 'rec 1', got %q", gotID)
	}
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	var rows []row
	if err := client.List(context.Background(), "cart", &rows); err == nil {
		t.Fatal("expected an error for status 500")
	}
}
