package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	chatapi "github.com/futig/ragchat-backend/internal/api/chat"
	documentapi "github.com/futig/ragchat-backend/internal/api/document"
	providerapi "github.com/futig/ragchat-backend/internal/api/provider"
	searchapi "github.com/futig/ragchat-backend/internal/api/search"
	"github.com/futig/ragchat-backend/internal/cache"
	"github.com/futig/ragchat-backend/internal/config"
	"github.com/futig/ragchat-backend/internal/dispatch"
	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/index"
	"github.com/futig/ragchat-backend/internal/pkg/chunker"
	pkgRetry "github.com/futig/ragchat-backend/internal/pkg/retry"
	"github.com/futig/ragchat-backend/internal/pkg/validator"
	"github.com/futig/ragchat-backend/internal/provider"
	"github.com/futig/ragchat-backend/internal/ratelimit"
	"github.com/futig/ragchat-backend/internal/repository"
	chatuc "github.com/futig/ragchat-backend/internal/usecase/chat"
	documentuc "github.com/futig/ragchat-backend/internal/usecase/document"
	provideruc "github.com/futig/ragchat-backend/internal/usecase/provider"
	searchuc "github.com/futig/ragchat-backend/internal/usecase/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type upstream struct {
	server *httptest.Server
	status atomic.Int32
	calls  atomic.Int32

	mu   sync.Mutex
	last map[string]any
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{}
	u.status.Store(http.StatusOK)
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.last = body
		u.mu.Unlock()

		status := int(u.status.Load())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"text":"foxes are quick","usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) lastMessages() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	raw, _ := u.last["messages"].([]any)
	contents := make([]string, 0, len(raw))
	for _, m := range raw {
		if msg, ok := m.(map[string]any); ok {
			content, _ := msg["content"].(string)
			contents = append(contents, content)
		}
	}
	return contents
}

type testEnv struct {
	router   http.Handler
	upstream *upstream
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	up := newUpstream(t)

	providersFile := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(providersFile, []byte(fmt.Sprintf(`
providers:
  - name: local
    kind: generic
    endpoint_url: %s
    default_model: small
    models: [small]
`, up.server.URL)), 0o600))

	configs, err := provider.LoadFile(providersFile)
	require.NoError(t, err)
	registry, err := provider.NewRegistry(configs, logger)
	require.NoError(t, err)

	db, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ragchat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	uploadCfg := config.FileUploadConfig{
		MaxFileSize:   1 << 20,
		MaxTotalSize:  4 << 20,
		MaxFileCount:  4,
		MaxUploadSize: 8 << 20,
	}

	termIndex := index.New()
	documentUC := documentuc.NewUsecase(
		repository.NewDocumentSQLite(db),
		termIndex,
		chunker.New(),
		validator.NewFileValidator(uploadCfg),
		documentuc.Config{MaxDocumentBytes: 1 << 20, Workers: 2},
		logger,
	)
	searchUC := searchuc.NewUsecase(termIndex, searchuc.Config{TopK: 5})

	responseCache, err := cache.NewLRU(16)
	require.NoError(t, err)
	dispatcher := dispatch.New(registry, ratelimit.New(registry.RequestsPerMinute), responseCache, dispatch.Config{
		Retry: pkgRetry.RetryConfig{
			MaxRetries: 1,
			Delay:      time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
		CacheTTL: time.Minute,
		Timeout:  5 * time.Second,
	})
	chatUC := chatuc.NewUsecase(searchUC, dispatcher, chatuc.Config{Temperature: 0.2, MaxTokens: 128})

	router := SetupRouter(Handlers{
		Document: documentapi.NewHandler(documentUC, uploadCfg),
		Search:   searchapi.NewHandler(searchUC),
		Chat:     chatapi.NewHandler(chatUC),
		Provider: providerapi.NewHandler(provideruc.NewUsecase(registry, providersFile)),
	}, RouterConfig{RequestTimeout: 10 * time.Second}, logger)

	return &testEnv{router: router, upstream: up}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) ingest(t *testing.T, id, text string) {
	t.Helper()
	rec := e.do(t, http.MethodPut, "/documents/"+id, entity.IngestTextRequest{Text: text})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestDocumentLifecycle(t *testing.T) {
	env := newTestEnv(t)

	env.ingest(t, "foxes.txt", "The quick brown fox jumps over the lazy dog.\n\nFoxes are quick and clever.")
	env.ingest(t, "cats.txt", "Cats sleep most of the day.")

	rec := env.do(t, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[entity.ListDocumentsResponse](t, rec)
	assert.Equal(t, 2, list.Total)

	rec = env.do(t, http.MethodGet, "/documents/foxes.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[entity.Document](t, rec)
	assert.Equal(t, "foxes.txt", doc.ID)
	assert.Positive(t, doc.ChunkCount)

	rec = env.do(t, http.MethodPost, "/search", entity.SearchRequest{Query: "quick fox"})
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[entity.SearchResponse](t, rec).Results
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "foxes.txt", r.SourceDocumentID)
	}

	rec = env.do(t, http.MethodDelete, "/documents/foxes.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[entity.DeleteDocumentResponse](t, rec).Deleted)

	rec = env.do(t, http.MethodPost, "/search", entity.SearchRequest{Query: "quick fox"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[entity.SearchResponse](t, rec).Results)

	rec = env.do(t, http.MethodGet, "/documents/foxes.txt", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/documents/foxes.txt", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/documents/empty.txt", entity.IngestTextRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/search", entity.SearchRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocuments(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"notes.md":  "# Foxes\n\nFoxes are *quick* animals.",
		"page.html": "<html><body><p>Owls hunt at night.</p><script>ignored()</script></body></html>",
		"blank.txt": "   ",
	})
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[entity.UploadDocumentsResponse](t, rec)
	assert.Len(t, resp.Documents, 2)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "blank.txt", resp.Failed[0].Filename)

	rec = env.do(t, http.MethodPost, "/search", entity.SearchRequest{Query: "owls night"})
	results := decode[entity.SearchResponse](t, rec).Results
	require.NotEmpty(t, results)
	assert.Equal(t, "page.html", results[0].SourceDocumentID)
	assert.NotContains(t, results[0].Text, "ignored")
}

func TestUploadDocuments_AllRejected(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{"blank.txt": " "})
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, decode[entity.UploadDocumentsResponse](t, rec).Failed, 1)
}

func TestChat_GroundsAnswerInDocuments(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "foxes.txt", "Foxes are quick and clever hunters.")

	rec := env.do(t, http.MethodPost, "/chat", entity.ChatHTTPRequest{
		ChatTurn: entity.ChatTurn{Message: "are foxes quick?", Provider: "local"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reply := decode[entity.ChatReply](t, rec)
	assert.Equal(t, "foxes are quick", reply.Text)
	assert.Equal(t, 13, reply.Usage.TotalTokens)
	assert.Equal(t, "small", reply.Outcome.Model)
	require.NotEmpty(t, reply.Sources)
	assert.Equal(t, "foxes.txt", reply.Sources[0].SourceDocumentID)

	messages := env.upstream.lastMessages()
	require.Len(t, messages, 3)
	assert.Contains(t, messages[1], "KNOWLEDGE BASE CONTEXT")
	assert.Contains(t, messages[1], "Foxes are quick and clever hunters.")
	assert.Equal(t, "are foxes quick?", messages[2])

	rec = env.do(t, http.MethodPost, "/chat", entity.ChatHTTPRequest{
		ChatTurn: entity.ChatTurn{Message: "are foxes quick?", Provider: "local"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[entity.ChatReply](t, rec).Outcome.CacheHit)
	assert.EqualValues(t, 1, env.upstream.calls.Load())
}

func TestChat_MarkdownDownload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/chat", entity.ChatHTTPRequest{
		ChatTurn: entity.ChatTurn{Message: "hello", Provider: "local"},
		Format:   entity.FormatMarkdown,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".md")
	assert.Contains(t, rec.Body.String(), "foxes are quick")
}

func TestChat_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/chat", entity.ChatHTTPRequest{
		ChatTurn: entity.ChatTurn{Message: "hello", Provider: "nowhere"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "configuration", decode[entity.ErrorResponse](t, rec).Kind)

	rec = env.do(t, http.MethodPost, "/chat", entity.ChatHTTPRequest{
		ChatTurn: entity.ChatTurn{Message: "hello", Provider: "local"},
		Format:   "xml",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.upstream.status.Store(http.StatusServiceUnavailable)
	rec = env.do(t, http.MethodPost, "/chat", entity.ChatHTTPRequest{
		ChatTurn: entity.ChatTurn{Message: "hello", Provider: "local", SkipCache: true},
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[entity.ErrorResponse](t, rec)
	assert.Equal(t, "transient", body.Kind)
	assert.True(t, strings.Contains(body.Message, "temporarily unavailable"))
	assert.EqualValues(t, 2, env.upstream.calls.Load())
}

func TestProviders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	providers := decode[entity.ListProvidersResponse](t, rec).Providers
	require.Len(t, providers, 1)
	assert.Equal(t, "local", providers[0].Name)

	rec = env.do(t, http.MethodGet, "/providers/local/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"small"}, decode[entity.ListModelsResponse](t, rec).Models)

	rec = env.do(t, http.MethodGet, "/providers/nowhere/models", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/providers/reload", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
