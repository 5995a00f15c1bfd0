package tests

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"erp-assistant/internal/application"
	"erp-assistant/internal/domain"
	"erp-assistant/internal/infra/audio"
	"erp-assistant/internal/infra/erp"
	"erp-assistant/internal/infra/speaker"
)

// fakeERP records the calls a conversation produces so the test can
// assert the two-phase ordering end to end.
type fakeERP struct {
	mu          sync.Mutex
	generateErr bool
	calls       []string
	created     []domain.Product
}

func (f *fakeERP) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/products/generate-reference", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, "generate")
		fail := f.generateErr
		f.mu.Unlock()

		if fail {
			http.Error(w, "sequence exhausted", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"code": "PROD-0100"})
	})

	mux.HandleFunc("POST /api/products", func(w http.ResponseWriter, r *http.Request) {
		var p domain.Product
		json.NewDecoder(r.Body).Decode(&p)

		f.mu.Lock()
		f.calls = append(f.calls, "create")
		f.created = append(f.created, p)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	})

	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		items := append([]domain.Product(nil), f.created...)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(items)})
	})

	return mux
}

func (f *fakeERP) snapshot() ([]string, []domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...), append([]domain.Product(nil), f.created...)
}

func newTestAssistant(t *testing.T, backend *fakeERP) (*application.Assistant, *audio.HTTPSource, func()) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	server := httptest.NewServer(backend.handler())

	source := audio.NewHTTPSource(":0", "", logger)
	products := erp.NewClient(server.URL, erp.StaticTokenSource("integration-token"), logger)

	assistant := application.NewAssistant(
		source,
		&application.NoopSTT{},
		speaker.NewConsoleSpeaker(logger),
		products,
		&application.NoopNotifier{},
		application.Timing{PostSpeechDelay: time.Millisecond, RefreshDelay: 10 * time.Millisecond},
		logger,
	)

	return assistant, source, server.Close
}

func inject(source *audio.HTTPSource, utterances ...string) {
	for _, u := range utterances {
		source.InjectAudio([]byte(domain.TextCommandPrefix + u))
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestIntegration_VoiceProductCreation(t *testing.T) {
	backend := &fakeERP{}
	assistant, source, closeBackend := newTestAssistant(t, backend)
	defer closeBackend()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go assistant.Run(ctx)

	inject(source,
		"okay system create a product",
		"Widget",
		"it's a service item",
		"fifty",
		"a hundred",
		"skip",
	)

	waitFor(t, 5*time.Second, func() bool {
		_, created := backend.snapshot()
		return len(created) == 1
	})

	calls, created := backend.snapshot()

	// The reference must be generated before creation is attempted.
	if len(calls) < 2 || calls[0] != "generate" || calls[1] != "create" {
		t.Fatalf("call order: got %v", calls)
	}

	p := created[0]
	if p.Name != "Widget" || p.Type != domain.ProductTypeService {
		t.Errorf("product: got %+v", p)
	}
	if p.CostPrice != "50" || p.SalePrice != "00" {
		t.Errorf("prices: got %q/%q, want 50/00", p.CostPrice, p.SalePrice)
	}
	if p.Code != "PROD-0100" {
		t.Errorf("code: got %q, want PROD-0100", p.Code)
	}
	if p.Description != "" {
		t.Errorf("description: got %q, want empty", p.Description)
	}

	waitFor(t, 5*time.Second, func() bool {
		return assistant.Snapshot().Step == domain.StepIdle && !assistant.Snapshot().Submitting
	})
}

func TestIntegration_ReferenceFailureAbortsCreation(t *testing.T) {
	backend := &fakeERP{generateErr: true}
	assistant, source, closeBackend := newTestAssistant(t, backend)
	defer closeBackend()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go assistant.Run(ctx)

	inject(source,
		"create product",
		"Widget",
		"storable",
		"ten",
		"twenty",
		"skip",
	)

	waitFor(t, 5*time.Second, func() bool {
		calls, _ := backend.snapshot()
		return len(calls) >= 1
	})

	// Give the pipeline a moment to (incorrectly) attempt creation.
	time.Sleep(200 * time.Millisecond)

	calls, created := backend.snapshot()
	for _, call := range calls {
		if call == "create" {
			t.Fatalf("creation attempted after reference failure: %v", calls)
		}
	}
	if len(created) != 0 {
		t.Fatalf("products created: %v", created)
	}

	waitFor(t, 5*time.Second, func() bool {
		return assistant.Snapshot().Step == domain.StepIdle
	})
}
