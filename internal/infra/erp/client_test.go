package erp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"erp-assistant/internal/domain"
	"erp-assistant/internal/infra/erp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_GenerateReference(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/generate-reference" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"code": "PROD-0042"})
	}))
	defer server.Close()

	client := erp.NewClient(server.URL, erp.StaticTokenSource("secret-token"), testLogger())

	code, err := client.GenerateReference(context.Background(), "Widget")
	if err != nil {
		t.Fatalf("GenerateReference error: %v", err)
	}
	if code != "PROD-0042" {
		t.Errorf("code: got %q, want PROD-0042", code)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
	if gotBody["kind"] != "product" || gotBody["name"] != "Widget" {
		t.Errorf("request body: got %v", gotBody)
	}
}

func TestClient_GenerateReference_EmptyCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"code": ""})
	}))
	defer server.Close()

	client := erp.NewClient(server.URL, erp.StaticTokenSource("tok"), testLogger())

	if _, err := client.GenerateReference(context.Background(), "Widget"); err == nil {
		t.Fatal("expected error on empty reference code")
	}
}

func TestClient_CreateProduct(t *testing.T) {
	var gotProduct domain.Product

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" || r.Method != http.MethodPost {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotProduct)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(gotProduct)
	}))
	defer server.Close()

	client := erp.NewClient(server.URL, erp.StaticTokenSource("tok"), testLogger())

	p := domain.NewProduct(domain.ProductDraft{
		Name:      "Widget",
		Type:      domain.ProductTypeService,
		CostPrice: "50",
		SalePrice: "100",
	}, "PROD-0042")

	created, err := client.CreateProduct(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProduct error: %v", err)
	}
	if created == nil || created.Code != "PROD-0042" {
		t.Fatalf("created: got %+v", created)
	}
	if gotProduct.Tracking != "none" || gotProduct.ReorderMin != 0 || gotProduct.ReorderMax != 0 {
		t.Errorf("defaults missing from payload: %+v", gotProduct)
	}
}

func TestClient_ListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"code": "PROD-0001", "name": "Widget"},
				{"code": "PROD-0002", "name": "Bolt"},
			},
			"total": 2,
		})
	}))
	defer server.Close()

	client := erp.NewClient(server.URL, erp.StaticTokenSource("tok"), testLogger())

	products, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products: got %d, want 2", len(products))
	}
	if products[0].Name != "Widget" {
		t.Errorf("name: got %q, want Widget", products[0].Name)
	}
}

func TestClient_NoTokenSkipsCalls(t *testing.T) {
	var calls int
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"code": "PROD-0001"})
	}))
	defer server.Close()

	client := erp.NewClient(server.URL, erp.StaticTokenSource(""), testLogger())

	code, err := client.GenerateReference(context.Background(), "Widget")
	if err != nil || code != "" {
		t.Errorf("GenerateReference: got (%q, %v), want skip", code, err)
	}

	created, err := client.CreateProduct(context.Background(), domain.Product{Name: "Widget"})
	if err != nil || created != nil {
		t.Errorf("CreateProduct: got (%v, %v), want skip", created, err)
	}

	products, err := client.ListProducts(context.Background())
	if err != nil || products != nil {
		t.Errorf("ListProducts: got (%v, %v), want skip", products, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("backend called %d times without a token", calls)
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer server.Close()

	client := erp.NewClient(server.URL, erp.StaticTokenSource("tok"), testLogger())

	if _, err := client.GenerateReference(context.Background(), "Widget"); err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func TestClient_ContextTimeout(t *testing.T) {
	var mu sync.Mutex
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"code": "PROD-0001"})
	}))
	defer server.Close()

	client := erp.NewClient(server.URL, erp.StaticTokenSource("tok"), testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateReference(ctx, "Widget")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("GenerateReference: got %v, want context.DeadlineExceeded", err)
	}

	// Deadline errors must not be retried.
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
}

func TestFileTokenSource_MissingFile(t *testing.T) {
	source := erp.NewFileTokenSource("/nonexistent/token")

	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if token != "" {
		t.Errorf("token: got %q, want empty", token)
	}
}
