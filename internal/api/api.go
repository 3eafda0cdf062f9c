// ABOUTME: API handler set, route registration, and JSON helpers
// ABOUTME: Holds the store, auth strategies, and token settings shared by all handlers

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Alex-Zverr/microshop/internal/auth"
	"github.com/Alex-Zverr/microshop/internal/store"
)

// maxBodyBytes caps JSON and form request bodies.
const maxBodyBytes = 1 << 20

// Store is the persistence surface used by the CRUD handlers.
type Store interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUser(ctx context.Context, id int64) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	ListUsersWithPosts(ctx context.Context) ([]*store.User, error)
	UpsertProfile(ctx context.Context, profile *store.Profile) error

	CreatePosts(ctx context.Context, userID int64, posts ...*store.Post) error
	ListPostsByUser(ctx context.Context, userID int64) ([]*store.Post, error)
	ListPostsWithAuthors(ctx context.Context) ([]*store.Post, error)

	CreateProduct(ctx context.Context, p *store.Product) error
	GetProduct(ctx context.Context, id int64) (*store.Product, error)
	ListProducts(ctx context.Context) ([]*store.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch store.ProductPatch) (*store.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, order *store.Order, productIDs []int64) error
	GetOrder(ctx context.Context, id int64) (*store.Order, error)
}

// Config carries the dependencies of the API handlers.
type Config struct {
	Store          Store
	Basic          *auth.BasicVerifier
	StaticToken    *auth.StaticTokenVerifier
	Cookie         *auth.CookieVerifier
	Bearer         *auth.BearerVerifier
	Codec          *auth.JWTCodec
	AccessTokenTTL time.Duration
	Metrics        *auth.Metrics
	Logger         *slog.Logger
}

// API serves all microshop routes.
type API struct {
	store          Store
	basic          *auth.BasicVerifier
	staticToken    *auth.StaticTokenVerifier
	cookie         *auth.CookieVerifier
	bearer         *auth.BearerVerifier
	codec          *auth.JWTCodec
	accessTokenTTL time.Duration
	metrics        *auth.Metrics
	logger         *slog.Logger
}

// New creates the API handler set.
func New(cfg Config) *API {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		store:          cfg.Store,
		basic:          cfg.Basic,
		staticToken:    cfg.StaticToken,
		cookie:         cfg.Cookie,
		bearer:         cfg.Bearer,
		codec:          cfg.Codec,
		accessTokenTTL: cfg.AccessTokenTTL,
		metrics:        cfg.Metrics,
		logger:         logger.With("component", "api"),
	}
}

// Register mounts all routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	requireBasic := auth.Require(a.basic, a.metrics)
	requireStatic := auth.Require(a.staticToken, a.metrics)
	requireCookie := auth.Require(a.cookie, a.metrics)
	requireBearer := auth.Require(a.bearer, a.metrics)

	// Demo auth
	mux.HandleFunc("GET /demo-auth/basic-auth", a.handleBasicAuthCredentials)
	mux.Handle("GET /demo-auth/basic-auth-username", requireBasic(http.HandlerFunc(a.handleGreeting)))
	mux.Handle("GET /demo-auth/some-http-header-auth-username", requireStatic(http.HandlerFunc(a.handleGreeting)))
	mux.HandleFunc("POST /demo-auth/login-cookie", a.handleLoginCookie)
	mux.HandleFunc("POST /demo-auth/login_cookie", a.handleLoginCookie)
	mux.Handle("GET /demo-auth/check-cookie", requireCookie(http.HandlerFunc(a.handleCheckCookie)))
	mux.Handle("GET /demo-auth/logout-cookie", requireCookie(http.HandlerFunc(a.handleLogoutCookie)))

	// JWT
	mux.HandleFunc("POST /jwt/login/{$}", a.handleJWTLogin)
	mux.Handle("GET /jwt/users/me/{$}", requireBearer(http.HandlerFunc(a.handleJWTMe)))

	// CRUD
	mux.HandleFunc("POST /api/v1/users", a.handleCreateUser)
	mux.HandleFunc("GET /api/v1/users", a.handleListUsers)
	mux.HandleFunc("GET /api/v1/users/{username}", a.handleGetUser)
	mux.HandleFunc("GET /api/v1/users/{id}/posts", a.handleListUserPosts)
	mux.HandleFunc("PUT /api/v1/users/{id}/profile", a.handlePutProfile)
	mux.HandleFunc("POST /api/v1/posts", a.handleCreatePosts)
	mux.HandleFunc("GET /api/v1/posts", a.handleListPosts)
	mux.HandleFunc("POST /api/v1/products", a.handleCreateProduct)
	mux.HandleFunc("GET /api/v1/products", a.handleListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", a.handleGetProduct)
	mux.HandleFunc("PATCH /api/v1/products/{id}", a.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/v1/products/{id}", a.handleDeleteProduct)
	mux.HandleFunc("POST /api/v1/orders", a.handleCreateOrder)
	mux.HandleFunc("GET /api/v1/orders/{id}", a.handleGetOrder)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sendJSONError writes a {"detail": message} error response.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	auth.WriteDetail(w, status, message)
}

// decodeJSON decodes a size-limited JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return errors.New("invalid JSON body")
	}
	return nil
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// internalError logs err and writes a generic 500.
func (a *API) internalError(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, "error", err)
	sendJSONError(w, http.StatusInternalServerError, "internal server error")
}

// storeError maps store sentinels to 404/409 and anything else to 500.
func (a *API) storeError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		sendJSONError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrConflict):
		sendJSONError(w, http.StatusConflict, what+" already exists")
	default:
		a.internalError(w, "store operation failed", err)
	}
}
