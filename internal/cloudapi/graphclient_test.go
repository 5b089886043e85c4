package cloudapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticTokenSource struct{ token string }

func (s staticTokenSource) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

func TestEnsureFolderCreatesOnNotFound(t *testing.T) {
	createCalled := false

	mux := http.NewServeMux()
	mux.HandleFunc("/root:/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/items/parent-1/children", func(w http.ResponseWriter, r *http.Request) {
		createCalled = true
		json.NewEncoder(w).Encode(childLookupResponse{ID: "new-folder-id"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGraphClient(srv.URL, staticTokenSource{token: "tok"})
	client.http = srv.Client()

	id, path, err := client.EnsureFolder(context.Background(), "parent-1", "/2023/06", "Paris")
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	if id != "new-folder-id" {
		t.Fatalf("got id %q", id)
	}
	if path != "/2023/06/Paris" {
		t.Fatalf("got path %q", path)
	}
	if !createCalled {
		t.Fatal("expected CreateFolder to be called after a 404 lookup")
	}
}

func TestEnsureFolderCachesAcrossCalls(t *testing.T) {
	lookupCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/root:/", func(w http.ResponseWriter, r *http.Request) {
		lookupCalls++
		json.NewEncoder(w).Encode(childLookupResponse{ID: "existing-id"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGraphClient(srv.URL, staticTokenSource{token: "tok"})
	client.http = srv.Client()

	id1, _, err := client.EnsureFolder(context.Background(), "parent-1", "/2023/06", "Paris")
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	id2, _, err := client.EnsureFolder(context.Background(), "parent-1", "/2023/06", "Paris")
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	if id1 != id2 || id1 != "existing-id" {
		t.Fatalf("expected consistent cached id, got %q then %q", id1, id2)
	}
	if lookupCalls != 1 {
		t.Fatalf("expected exactly 1 network lookup due to caching, got %d", lookupCalls)
	}
}

func TestMoveItemSendsParentReferencePatch(t *testing.T) {
	var gotBody map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/items/item-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGraphClient(srv.URL, staticTokenSource{token: "tok"})
	client.http = srv.Client()

	if err := client.MoveItem(context.Background(), "item-1", "new-parent"); err != nil {
		t.Fatalf("MoveItem: %v", err)
	}

	parentRef, ok := gotBody["parentReference"].(map[string]any)
	if !ok || parentRef["id"] != "new-parent" {
		t.Fatalf("got body %+v", gotBody)
	}
}

func TestDeltaErrorIncludesStatusAndBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/root/delta", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":"activityLimitReached"}}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGraphClient(srv.URL, staticTokenSource{token: "tok"})
	client.http = srv.Client()

	_, err := client.Delta(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error for a non-2xx delta response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status code in error, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "activityLimitReached") {
		t.Fatalf("expected response body in error, got %q", err.Error())
	}
}

func TestMoveItemErrorIncludesStatusAndBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items/item-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":"accessDenied"}}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGraphClient(srv.URL, staticTokenSource{token: "tok"})
	client.http = srv.Client()

	err := client.MoveItem(context.Background(), "item-1", "new-parent")
	if err == nil {
		t.Fatal("expected an error for a non-2xx move response")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "accessDenied") {
		t.Fatalf("expected status and body in error, got %q", err.Error())
	}
}

func TestGetItemByPathErrorIncludesStatusAndBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/root:/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"generalException"}}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGraphClient(srv.URL, staticTokenSource{token: "tok"})
	client.http = srv.Client()

	_, err := client.GetItemByPath(context.Background(), "/2023/06")
	if err == nil {
		t.Fatal("expected an error for a non-2xx lookup response")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "generalException") {
		t.Fatalf("expected status and body in error, got %q", err.Error())
	}
}

func TestCreateFolderErrorIncludesStatusAndBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items/parent-1/children", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"nameAlreadyExists"}}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGraphClient(srv.URL, staticTokenSource{token: "tok"})
	client.http = srv.Client()

	_, err := client.CreateFolder(context.Background(), "parent-1", "Paris")
	if err == nil {
		t.Fatal("expected an error for a non-2xx create-folder response")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "nameAlreadyExists") {
		t.Fatalf("expected status and body in error, got %q", err.Error())
	}
}
