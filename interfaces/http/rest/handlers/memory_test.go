package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agentmemory/application/ports"
	"agentmemory/application/services"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/core/valueobjects"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMemoryStore struct {
	ports.MemoryStore
	inserted     []*entities.Memory
	byID         map[string]*entities.Memory
	exportResult []*entities.Memory
	exportErr    error
	purgeDeleted int64
	purgeErr     error
	purgeCutoffs []time.Time
	clearDeleted int64
	clearErr     error
	searchResult []ports.ScoredMemory
	searchErr    error
}

func (f *fakeMemoryStore) Insert(ctx context.Context, m *entities.Memory) (string, error) {
	f.inserted = append(f.inserted, m)
	return m.ID, nil
}

func (f *fakeMemoryStore) FindByID(ctx context.Context, id string) (*entities.Memory, error) {
	if f.byID == nil {
		return nil, nil
	}
	return f.byID[id], nil
}

func (f *fakeMemoryStore) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeMemoryStore) SimilaritySearch(ctx context.Context, agentID string, embedding []float64, limit int, tags []string) ([]ports.ScoredMemory, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func (f *fakeMemoryStore) Export(ctx context.Context, agentID string) ([]*entities.Memory, error) {
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return f.exportResult, nil
}

func (f *fakeMemoryStore) PurgeOlderThan(ctx context.Context, agentID string, cutoff time.Time) (int64, error) {
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	f.purgeCutoffs = append(f.purgeCutoffs, cutoff)
	return f.purgeDeleted, nil
}

func (f *fakeMemoryStore) DeleteByAgent(ctx context.Context, agentID string) (int64, error) {
	if f.clearErr != nil {
		return 0, f.clearErr
	}
	return f.clearDeleted, nil
}

type fakeEmbedder struct{ vector []float64 }

func (f *fakeEmbedder) Embed(ctx context.Context, text string, role ports.EmbeddingRole) ([]float64, error) {
	return f.vector, nil
}
func (f *fakeEmbedder) Dimension() int { return len(f.vector) }
func (f *fakeEmbedder) Mode() string   { return "mock" }

func newTestMemoryHandler(store *fakeMemoryStore) *MemoryHandler {
	facade := services.New(store, nil, nil, &fakeEmbedder{vector: []float64{1, 0}}, nil, nil, nil, zap.NewNop())
	return NewMemoryHandler(facade, store, zap.NewNop())
}

func TestRememberHandlerPersistsAndReturns200(t *testing.T) {
	store := &fakeMemoryStore{}
	h := newTestMemoryHandler(store)

	body := `{"agentId":"agent-1","text":"likes tea"}`
	req := httptest.NewRequest(http.MethodPost, "/remember", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Remember(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["id"])
	assert.Len(t, store.inserted, 1)
}

func TestRememberHandlerRejectsMissingRequiredFields(t *testing.T) {
	store := &fakeMemoryStore{}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/remember", strings.NewReader(`{"agentId":"agent-1"}`))
	w := httptest.NewRecorder()

	h.Remember(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.inserted)
}

func TestRememberHandlerRejectsMalformedJSON(t *testing.T) {
	store := &fakeMemoryStore{}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/remember", strings.NewReader(`not json`))
	w := httptest.NewRecorder()

	h.Remember(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecallHandlerRequiresAgentIDAndQuery(t *testing.T) {
	store := &fakeMemoryStore{}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/recall?agentId=agent-1", nil)
	w := httptest.NewRecorder()

	h.Recall(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecallHandlerReturnsResults(t *testing.T) {
	store := &fakeMemoryStore{searchResult: []ports.ScoredMemory{{Memory: &entities.Memory{ID: "m1", Text: "likes tea"}, Score: 0.75}}}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/recall?agentId=agent-1&query=tea", nil)
	w := httptest.NewRecorder()

	h.Recall(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["count"])
	assert.Equal(t, "vector", resp["method"])
}

func TestRecallHandlerRaisesBadRequestOnDimensionMismatch(t *testing.T) {
	store := &fakeMemoryStore{searchErr: valueobjects.ErrDimensionMismatch}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/recall?agentId=agent-1&query=tea", nil)
	w := httptest.NewRecorder()

	h.Recall(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForgetHandlerReturns404ForUnknownMemory(t *testing.T) {
	store := &fakeMemoryStore{byID: map[string]*entities.Memory{}}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/forget/missing", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	h.Forget(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForgetHandlerSucceedsForExistingMemory(t *testing.T) {
	store := &fakeMemoryStore{byID: map[string]*entities.Memory{"m1": {ID: "m1", AgentID: "agent-1"}}}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/forget/m1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "m1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	h.Forget(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportHandlerRequiresAgentID(t *testing.T) {
	store := &fakeMemoryStore{}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	w := httptest.NewRecorder()

	h.Export(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerReturnsMemories(t *testing.T) {
	store := &fakeMemoryStore{exportResult: []*entities.Memory{{ID: "m1"}, {ID: "m2"}}}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/export?agentId=agent-1", nil)
	w := httptest.NewRecorder()

	h.Export(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["count"])
}

func TestPurgeHandlerParsesRFC3339Cutoff(t *testing.T) {
	store := &fakeMemoryStore{purgeDeleted: 3}
	h := newTestMemoryHandler(store)

	body := `{"agentId":"agent-1","olderThan":"2026-01-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/purge", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Purge(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.purgeCutoffs, 1)
	assert.Equal(t, 2026, store.purgeCutoffs[0].Year())
}

func TestPurgeHandlerRejectsBadTimestamp(t *testing.T) {
	store := &fakeMemoryStore{}
	h := newTestMemoryHandler(store)

	body := `{"agentId":"agent-1","olderThan":"not-a-date"}`
	req := httptest.NewRequest(http.MethodPost, "/purge", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Purge(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearHandlerRequiresAgentID(t *testing.T) {
	store := &fakeMemoryStore{}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/clear", nil)
	w := httptest.NewRecorder()

	h.Clear(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearHandlerDeletesAllMemoriesForAgent(t *testing.T) {
	store := &fakeMemoryStore{clearDeleted: 7}
	h := newTestMemoryHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/clear?agentId=agent-1", nil)
	w := httptest.NewRecorder()

	h.Clear(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["deleted"])
}
