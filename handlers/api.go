package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"recipeshare_backend/auth"
	"recipeshare_backend/logger"
	"recipeshare_backend/metrics"
	"recipeshare_backend/middleware"
	"recipeshare_backend/response"
	"recipeshare_backend/storage"
	"recipeshare_backend/store"
)

type Deps struct {
	Store    store.Store
	Auth     *auth.Service
	Uploader *storage.Uploader
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	// APIKey gates the scraper import and the image proxy.
	APIKey string
	// Limiter throttles the /auth endpoints; nil disables it.
	Limiter    *middleware.RateLimiter
	HTTPClient *http.Client
}

type API struct {
	store    store.Store
	auth     *auth.Service
	uploader *storage.Uploader
	log      *logger.Logger
	metrics  *metrics.Metrics
	apiKey   string
	limiter  *middleware.RateLimiter
	client   *http.Client
	validate *validator.Validate
	now      func() time.Time
}

func New(d Deps) *API {
	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{
		store:    d.Store,
		auth:     d.Auth,
		uploader: d.Uploader,
		log:      d.Log.With("component", "handlers"),
		metrics:  d.Metrics,
		apiKey:   d.APIKey,
		limiter:  d.Limiter,
		client:   client,
		validate: newValidator(),
		now:      time.Now,
	}
}

// chain wraps h in mws, outermost first.
func chain(h http.HandlerFunc, mws ...mux.MiddlewareFunc) http.Handler {
	var out http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

func (a *API) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(a.log), middleware.Metrics(a.metrics), middleware.Recover(a.log))

	optional := middleware.OptionalAuth(a.auth)
	required := middleware.RequireAuth(a.auth)
	apiKey := middleware.RequireAPIKey(a.apiKey)
	limited := func(next http.Handler) http.Handler { return next }
	if a.limiter != nil {
		limited = a.limiter.Middleware
	}

	r.HandleFunc("/health", a.health).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	r.Handle("/auth/register", chain(a.register, limited)).Methods(http.MethodPost)
	r.Handle("/auth/login", chain(a.login, limited)).Methods(http.MethodPost)
	r.Handle("/auth/google", chain(a.googleLogin, limited)).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify", a.verify).Methods(http.MethodGet)

	r.Handle("/recipes", chain(a.listRecipes, optional)).Methods(http.MethodGet)
	r.Handle("/recipes", chain(a.createRecipe, required)).Methods(http.MethodPost)
	r.HandleFunc("/recipes/search", a.searchRecipes).Methods(http.MethodGet)
	r.Handle("/recipes/external", chain(a.importExternal, apiKey)).Methods(http.MethodPost)
	r.HandleFunc("/recipes/{id}", a.getRecipe).Methods(http.MethodGet)
	r.Handle("/recipes/{id}", chain(a.updateRecipe, required)).Methods(http.MethodPut)
	r.Handle("/recipes/{id}", chain(a.deleteRecipe, required)).Methods(http.MethodDelete)
	r.HandleFunc("/recipes/{id}/layout", a.recipeLayout).Methods(http.MethodGet)
	r.Handle("/recipes/{id}/like", chain(a.toggleLike, required)).Methods(http.MethodPost)
	r.Handle("/recipes/{id}/save", chain(a.toggleSave, required)).Methods(http.MethodPost)

	r.HandleFunc("/comments", a.listComments).Methods(http.MethodGet)
	r.Handle("/comments", chain(a.createComment, required)).Methods(http.MethodPost)
	r.Handle("/comments/{id}", chain(a.deleteComment, required)).Methods(http.MethodDelete)

	r.HandleFunc("/faqs", a.listFAQs).Methods(http.MethodGet)
	r.Handle("/faqs", chain(a.askFAQ, required)).Methods(http.MethodPost)
	r.Handle("/faqs/{id}/answer", chain(a.answerFAQ, required)).Methods(http.MethodPost)

	r.Handle("/templates/save", chain(a.saveTemplate, required)).Methods(http.MethodPost)
	r.HandleFunc("/templates/public", a.publicTemplates).Methods(http.MethodGet)
	r.Handle("/templates/user/{id}", chain(a.userTemplates, required)).Methods(http.MethodGet)
	r.Handle("/templates/{id}", chain(a.getTemplate, optional)).Methods(http.MethodGet)

	r.Handle("/users/{id}", chain(a.getUser, optional)).Methods(http.MethodGet)
	r.Handle("/users/{id}", chain(a.patchUser, required)).Methods(http.MethodPatch)
	r.HandleFunc("/users/{id}/saved", a.savedRecipes).Methods(http.MethodGet)

	r.Handle("/images", chain(a.uploadImages, required)).Methods(http.MethodPost)
	r.Handle("/image", chain(a.fetchImage, apiKey)).Methods(http.MethodGet)

	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// imageURL resolves a stored image reference. Imported recipes keep the
// absolute URLs they were scraped with.
func (a *API) imageURL(key string) string {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	if a.uploader == nil {
		return key
	}
	return a.uploader.URL(key)
}

func authSession(r *http.Request) (auth.Session, bool) {
	return auth.SessionFrom(r.Context())
}

// session is the caller on routes behind RequireAuth.
func session(r *http.Request) auth.Session {
	s, _ := authSession(r)
	return s
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}
