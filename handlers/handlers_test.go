package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"recipeshare_backend/auth"
	"recipeshare_backend/blocks"
	"recipeshare_backend/logger"
	"recipeshare_backend/metrics"
	"recipeshare_backend/middleware"
	"recipeshare_backend/models"
	"recipeshare_backend/storage"
	"recipeshare_backend/store/memstore"
)

const testAPIKey = "scraper-key"

type harness struct {
	t       *testing.T
	store   *memstore.Store
	objects *storage.MemoryStore
	tokens  *auth.Tokens
	router  http.Handler
}

func newHarness(t *testing.T, opts ...func(*Deps)) *harness {
	t.Helper()
	st := memstore.New()
	objects := storage.NewMemoryStore("")
	tokens := auth.NewTokens("test-secret", time.Hour)
	log := logger.Nop()
	deps := Deps{
		Store:    st,
		Auth:     auth.NewService(st, tokens, nil, log),
		Uploader: storage.NewUploader(objects, "recipes", 3, 1<<10),
		Log:      log,
		Metrics:  metrics.New(),
		APIKey:   testAPIKey,
	}
	for _, o := range opts {
		o(&deps)
	}
	return &harness{t: t, store: st, objects: objects, tokens: tokens, router: New(deps).Routes()}
}

// user creates a user directly in the store and returns its id and a token.
func (h *harness) user(name string) (string, string) {
	h.t.Helper()
	u := &models.User{
		ID:          uuid.NewString(),
		Email:       name + "@example.com",
		Username:    name,
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(h.t, h.store.CreateUser(context.Background(), u))
	token, _, err := h.tokens.Issue(u.ID, u.Username)
	require.NoError(h.t, err)
	return u.ID, token
}

func (h *harness) recipe(r models.Recipe) *models.Recipe {
	h.t.Helper()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Normalize()
	require.NoError(h.t, h.store.CreateRecipe(context.Background(), &r))
	return &r
}

func (h *harness) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req, token)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Message
}

func pancakes() map[string]any {
	return map[string]any{
		"title":       "Fluffy Pancakes",
		"description": "Weekend breakfast",
		"ingredients": []map[string]any{{"name": "flour", "quantity": "200", "unit": "g"}, {"name": "milk", "quantity": "300", "unit": "ml"}},
		"directions":  []map[string]any{{"instruction": "Whisk everything"}, {"instruction": "Fry in batches"}},
		"cookingTime": map[string]any{"prepMinutes": 10, "cookMinutes": 15},
		"category":    "Breakfast",
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateRecipeNormalizesLegacyTemplate(t *testing.T) {
	h := newHarness(t)
	uid, token := h.user("ann")

	body := pancakes()
	body["template"] = "title, description"
	rec := h.do(http.MethodPost, "/recipes", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[recipeView](t, rec)
	assert.Equal(t, uid, got.AuthorID)
	assert.Equal(t, models.CategoryBreakfast, got.Category)
	assert.Equal(t, 25, got.CookingTime.TotalMinutes)
	assert.Equal(t, []int{1, 2}, []int{got.Directions[0].Step, got.Directions[1].Step})
	assert.Equal(t, `{"version":1,"blocks":[{"type":"title","config":{}},{"type":"description","config":{}}]}`, got.Template)

	rec = h.do(http.MethodGet, "/recipes/"+got.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fluffy Pancakes", decode[recipeView](t, rec).Title)

	u, err := h.store.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Contains(t, u.CreatedRecipes, got.ID)
}

func TestCreateRecipeAcceptsBlockList(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("ann")

	body := pancakes()
	body["template"] = []map[string]any{{"type": "title"}, {"type": "customText", "config": map[string]any{"text": "Enjoy"}}}
	rec := h.do(http.MethodPost, "/recipes", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t,
		`{"version":1,"blocks":[{"type":"title","config":{}},{"type":"customText","config":{"text":"Enjoy"}}]}`,
		decode[recipeView](t, rec).Template)
}

func TestCreateRecipeValidation(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("ann")

	body := pancakes()
	delete(body, "title")
	rec := h.do(http.MethodPost, "/recipes", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "title is required")

	body = pancakes()
	body["template"] = "{broken"
	rec = h.do(http.MethodPost, "/recipes", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "template")

	body = pancakes()
	body["category"] = "brunch"
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/recipes", token, body).Code)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/recipes", "", pancakes()).Code)
}

func TestUpdateAndDeleteAreAuthorOnly(t *testing.T) {
	h := newHarness(t)
	ann, annToken := h.user("ann")
	_, bobToken := h.user("bob")

	rec := h.do(http.MethodPost, "/recipes", annToken, map[string]any{
		"title":       "Soup",
		"ingredients": []map[string]any{{"name": "water"}},
		"directions":  []map[string]any{{"instruction": "Boil"}},
		"template":    "title",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[recipeView](t, rec)

	update := pancakes()
	path := "/recipes/" + created.ID
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, path, bobToken, update).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, path, bobToken, nil).Code)

	rec = h.do(http.MethodPut, path, annToken, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[recipeView](t, rec)
	assert.Equal(t, "Fluffy Pancakes", updated.Title)
	assert.Equal(t, created.Template, updated.Template, "template kept when omitted")
	assert.Equal(t, ann, updated.AuthorID)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, path, annToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, path, "", nil).Code)

	u, err := h.store.GetUser(context.Background(), ann)
	require.NoError(t, err)
	assert.NotContains(t, u.CreatedRecipes, created.ID)
}

func TestMissingRecipeIs404(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/recipes/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func TestListRecipesPaging(t *testing.T) {
	h := newHarness(t)
	ann, annToken := h.user("ann")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		h.recipe(models.Recipe{Title: fmt.Sprintf("Cake %d", i), Category: models.CategoryDessert, AuthorID: ann, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	h.recipe(models.Recipe{Title: "Toast", Category: models.CategoryBreakfast, CreatedAt: base})

	rec := h.do(http.MethodGet, "/recipes?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageView](t, rec)
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Recipes, 2)
	assert.Equal(t, "Cake 2", page.Recipes[0].Title)

	page = decode[pageView](t, h.do(http.MethodGet, "/recipes?category=dessert&page=2&limit=2", "", nil))
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Cake 0", page.Recipes[0].Title)

	page = decode[pageView](t, h.do(http.MethodGet, "/recipes?author=me", annToken, nil))
	assert.EqualValues(t, 3, page.Total)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/recipes?author=me", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/recipes?page=x", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/recipes?category=brunch", "", nil).Code)
}

func TestSearchRecipes(t *testing.T) {
	h := newHarness(t)
	h.recipe(models.Recipe{Title: "Fluffy Pancakes"})
	h.recipe(models.Recipe{Title: "Tomato Soup"})

	rec := h.do(http.MethodGet, "/recipes/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "query")

	rec = h.do(http.MethodGet, "/recipes/search?query=pancakes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageView](t, rec)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Fluffy Pancakes", page.Recipes[0].Title)
}

func TestExternalRecipes(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("ann")
	body := map[string]any{
		"title":     "Scraped Stew",
		"images":    []string{"https://cdn.example.com/stew.jpg"},
		"sourceUrl": "https://example.com/stew",
	}

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/recipes/external", "", body).Code)

	req := httptest.NewRequest(http.MethodPost, "/recipes/external", bytes.NewReader(mustJSON(t, body)))
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	rec := h.send(req, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ext := decode[recipeView](t, rec)
	assert.True(t, ext.External)
	assert.Empty(t, ext.Template)
	assert.Equal(t, []string{"https://cdn.example.com/stew.jpg"}, ext.ImageURLs)

	rec = h.do(http.MethodPost, "/recipes/"+ext.ID+"/like", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPost, "/comments", token, map[string]any{"recipeId": ext.ID, "text": "yum"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/recipes/"+ext.ID, token, pancakes()).Code)

	layout := decode[struct {
		Format blocks.Format     `json:"format"`
		Blocks []json.RawMessage `json:"blocks"`
	}](t, h.do(http.MethodGet, "/recipes/"+ext.ID+"/layout", "", nil))
	assert.Equal(t, "empty", string(layout.Format))
	assert.Len(t, layout.Blocks, 7)
}

func TestToggleLikeAndSave(t *testing.T) {
	h := newHarness(t)
	uid, token := h.user("ann")
	r := h.recipe(models.Recipe{Title: "Pie"})

	likePath := "/recipes/" + r.ID + "/like"
	assert.JSONEq(t, `{"liked":true,"likes":1}`, h.do(http.MethodPost, likePath, token, nil).Body.String())
	assert.JSONEq(t, `{"liked":false,"likes":0}`, h.do(http.MethodPost, likePath, token, nil).Body.String())
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/recipes/nope/like", token, nil).Code)

	assert.JSONEq(t, `{"saved":true}`, h.do(http.MethodPost, "/recipes/"+r.ID+"/save", token, nil).Body.String())
	rec := h.do(http.MethodGet, "/users/"+uid+"/saved", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[[]recipeView](t, rec)
	require.Len(t, saved, 1)
	assert.Equal(t, "Pie", saved[0].Title)
}

func TestRecipeLayout(t *testing.T) {
	h := newHarness(t)
	r := h.recipe(models.Recipe{
		Title:    "Shakshuka",
		Images:   []string{"recipes/abc.jpg"},
		Template: `[{"type":"title","config":{}},{"type":"image","config":{"imageIndex":0}},{"type":"mystery"}]`,
	})

	rec := h.do(http.MethodGet, "/recipes/"+r.ID+"/layout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Format string `json:"format"`
		Blocks []struct {
			Type  string         `json:"type"`
			Known bool           `json:"known"`
			Data  map[string]any `json:"data"`
		} `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "array", got.Format)
	require.Len(t, got.Blocks, 3)
	assert.Equal(t, "Shakshuka", got.Blocks[0].Data["title"])
	assert.Equal(t, "/objects/recipes/abc.jpg", got.Blocks[1].Data["url"])
	assert.False(t, got.Blocks[2].Known)
	assert.Equal(t, "Unknown Block", got.Blocks[2].Data["message"])

	rec = h.do(http.MethodGet, "/recipes/"+r.ID+"/layout?format=html", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Shakshuka")
	assert.Contains(t, rec.Body.String(), "Unknown Block: mystery")

	metricsBody := h.do(http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, metricsBody, `recipeshare_templates_decodes_total{format="array"} 2`)
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New()
	h := newHarness(t, func(d *Deps) {
		d.Log = &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
		d.Metrics = m
		d.Store = nil
	})

	rec := h.do(http.MethodGet, "/recipes/r1", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	assert.Equal(t, 1, logs.FilterMessage("panic in handler").Len())
	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), requests[0].ContextMap()["status"])
	assert.Equal(t, "/recipes/{id}", requests[0].ContextMap()["route"])

	metricsBody := h.do(http.MethodGet, "/metrics", "", nil).Body.String()
	assert.Contains(t, metricsBody, `recipeshare_http_requests_total{method="GET",path="/recipes/{id}",status="500"} 1`)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
