package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"AIAvatar/internal/cache"
	"AIAvatar/internal/history"
	"AIAvatar/internal/worker"
	"AIAvatar/pkg/logger"

	"github.com/gin-gonic/gin"
)

type stubEmbedder struct {
	mu   sync.Mutex
	dims map[string]int
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.dims[text]
	if !ok {
		i = len(e.dims)
		e.dims[text] = i
	}
	vec := make([]float32, 16)
	vec[i%16] = 1
	return vec, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type stubBrain struct{}

func (stubBrain) GenerateResponse(_ context.Context, question string) (string, string, error) {
	return "回答: " + question, "Neutral", nil
}

type stubTTS struct{}

func (stubTTS) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return []byte("mp3-bytes-long-enough"), nil
}

type memAudio struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memAudio) Put(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = data
	return name, nil
}

func (m *memAudio) Get(_ context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("no blob %q", ref)
	}
	return data, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("test")
	store := cache.NewAnswerStore(filepath.Join(t.TempDir(), "faq_cache.json"), log)
	cacheSvc, err := cache.NewService(context.Background(), &stubEmbedder{dims: make(map[string]int)}, cache.NewMemoryIndex(), store, 0.85, log)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	audio := &memAudio{blobs: make(map[string][]byte)}
	hist := history.NewMemoryHistory()
	hub := worker.NewHub(context.Background(), worker.Deps{
		Log:     log,
		Cache:   cacheSvc,
		Brain:   stubBrain{},
		TTS:     stubTTS{},
		Audio:   audio,
		History: hist,
	}, 2)

	router := gin.New()
	RegisterRoutes(router, NewAPI(hub, cacheSvc, audio, hist, log))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("Response is not JSON: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, parsed
}

func pollResult(t *testing.T, router *gin.Engine, sessionID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, body := doJSON(t, router, http.MethodGet, "/api/v1/result?session_id="+sessionID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Result poll returned %d", rec.Code)
		}
		if ready, _ := body["ready"].(bool); ready {
			return body["result"].(map[string]any)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out polling for a result")
	return nil
}

func TestAskThenPollDeliversAnswer(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/ask",
		`{"question": "与那国の人口は？", "author": "視聴者A"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d (%s)", rec.Code, rec.Body.String())
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("Expected an issued session id")
	}

	result := pollResult(t, router, sessionID)
	if result["response_text"] != "回答: 与那国の人口は？" {
		t.Errorf("Unexpected answer: %v", result["response_text"])
	}
	if hit, _ := result["cache_hit"].(bool); hit {
		t.Error("First answer must not be a cache hit")
	}
}

func TestSecondAskIsServedFromCache(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/v1/ask", `{"question": "何歳ですか？"}`)
	sessionID := body["session_id"].(string)
	pollResult(t, router, sessionID)

	_, body = doJSON(t, router, http.MethodPost, "/api/v1/ask",
		`{"session_id": "`+sessionID+`", "question": "何歳ですか？"}`)
	result := pollResult(t, router, sessionID)

	if hit, _ := result["cache_hit"].(bool); !hit {
		t.Error("Repeated question should be answered from the cache")
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	router := newTestRouter(t)
	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/ask", `{"question": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty question, got %d", rec.Code)
	}
}

func TestAudioRoundTripOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/v1/ask", `{"question": "質問"}`)
	sessionID := body["session_id"].(string)
	result := pollResult(t, router, sessionID)

	ref, _ := result["audio_ref"].(string)
	if ref == "" {
		t.Fatal("Expected an audio reference")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audio/"+ref, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for audio fetch, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "audio/mpeg" {
		t.Errorf("Unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/v1/ask", `{"question": "質問", "author": "視聴者A"}`)
	pollResult(t, router, body["session_id"].(string))

	rec, hist := doJSON(t, router, http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	entries, _ := hist["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(entries))
	}
	entry := entries[0].(map[string]any)
	if entry["author"] != "視聴者A" {
		t.Errorf("Unexpected history entry: %v", entry)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec, body := doJSON(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("Unexpected health body: %v", body)
	}
}
