// Package server binds the marketplace REST routes to the store, token
// service, and payment adapter. Each route is a single store or adapter
// call; the response relays the result verbatim.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/payment"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/store"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/token"
	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	Store          store.Store
	Tokens         *token.Service
	Payments       *payment.Service
	TrustedProxies *util.TrustedProxies
}

// Server exposes the marketplace HTTP endpoints.
type Server struct {
	store    store.Store
	tokens   *token.Service
	payments *payment.Service
	trusted  *util.TrustedProxies
	mux      *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		store:    cfg.Store,
		tokens:   cfg.Tokens,
		payments: cfg.Payments,
		trusted:  cfg.TrustedProxies,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestLog(s.trusted, util.WithRequestID(util.WithCORS(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/login", s.handleLogin)

	// tools
	s.mux.HandleFunc("/tools", s.handleTools)
	s.mux.HandleFunc("/tools/", s.handleToolByID)
	s.mux.HandleFunc("/parts", s.handleParts)
	s.mux.HandleFunc("/partsById", s.handlePartByID)

	// users
	s.mux.HandleFunc("/users", s.handleUsers)
	s.mux.HandleFunc("/usersById", s.handleUserByID)
	s.mux.HandleFunc("/usersByEmail", s.handleUserByEmail)

	// reviews & purchases
	s.mux.HandleFunc("/reviews", s.handleReviews)
	s.mux.HandleFunc("/purchase", s.handlePurchases)
	s.mux.Handle("/purchaseByEmail", s.authenticated(s.handlePurchasesByEmail))
	s.mux.HandleFunc("/purchaseById/", s.handlePurchaseByID)

	// payments
	s.mux.HandleFunc("/create-payment-intent", s.handleCreatePaymentIntent)
}

// auth wrappers
type claimsHandler func(http.ResponseWriter, *http.Request, map[string]any)

func (s *Server) authenticated(next claimsHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 401 is reserved for an absent header; any header that does not
		// carry a verifiable bearer token gets 403.
		if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
			writeMessage(w, http.StatusUnauthorized, "UnAuthorized access")
			return
		}
		bearer, ok := token.BearerToken(r)
		if !ok {
			writeMessage(w, http.StatusForbidden, "Forbidden access")
			return
		}
		claims, err := s.tokens.Verify(bearer)
		if err != nil {
			writeMessage(w, http.StatusForbidden, "Forbidden access")
			return
		}
		next(w, r, claims)
	})
}

// requireAdmin gates a route to accounts whose role is admin. An account
// that cannot be found counts as not admin. No route currently uses it;
// /usersById in particular remains open.
func (s *Server) requireAdmin(next claimsHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, claims map[string]any) {
		email, _ := token.EmailClaim(claims)
		user, err := s.store.GetUserByEmail(r.Context(), email)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if user == nil || user.Role != store.RoleAdmin {
			writeMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, claims)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Tools manufacturer server is running")
}

// handleLogin signs whatever identity payload was posted. There is no
// credential check; the route only mints a token over the body.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var identity map[string]any
	if !s.decodeBody(w, r, &identity) {
		return
	}
	accessToken, err := s.tokens.Issue(identity, token.LoginTokenTTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	tools, err := s.store.ListTools(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (s *Server) handleToolByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/tools/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	tool, err := s.store.GetTool(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (s *Server) handleParts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var tool store.Tool
		if !s.decodeBody(w, r, &tool) {
			return
		}
		res, err := s.store.InsertTool(r.Context(), tool)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodGet:
		tools, err := s.store.ListToolsNewestFirst(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tools)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePartByID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	switch r.Method {
	case http.MethodGet:
		tool, err := s.store.GetTool(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tool)
	case http.MethodDelete:
		res, err := s.store.DeleteTool(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		methodNotAllowed(w)
	}
}

// handleUsers upserts a user profile by email and hands back a fresh token
// with the update result, or lists all users.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		email := r.URL.Query().Get("email")
		var profile store.UserProfile
		if !s.decodeBody(w, r, &profile) {
			return
		}
		res, err := s.store.UpsertUserByEmail(r.Context(), email, profile)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		accessToken, err := s.tokens.Issue(map[string]any{"email": email}, token.UpsertTokenTTL)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Result      store.UpdateResult `json:"result"`
			AccessToken string             `json:"accessToken"`
		}{Result: res, AccessToken: accessToken})
	case http.MethodGet:
		users, err := s.store.ListUsers(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	res, err := s.store.MakeUserAdmin(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	switch r.Method {
	case http.MethodPut:
		var profile store.UserProfile
		if !s.decodeBody(w, r, &profile) {
			return
		}
		res, err := s.store.PatchUserByEmail(r.Context(), email, profile)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodGet:
		user, err := s.store.GetUserByEmail(r.Context(), email)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var review store.Review
		if !s.decodeBody(w, r, &review) {
			return
		}
		res, err := s.store.InsertReview(r.Context(), review)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodGet:
		reviews, err := s.store.ListReviewsNewestFirst(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reviews)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var purchase store.Purchase
		if !s.decodeBody(w, r, &purchase) {
			return
		}
		res, err := s.store.InsertPurchase(r.Context(), purchase)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodGet:
		purchases, err := s.store.ListPurchases(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, purchases)
	default:
		methodNotAllowed(w)
	}
}

// handlePurchasesByEmail returns the caller's own purchases. The email is
// taken from the verified token, never from the query string.
func (s *Server) handlePurchasesByEmail(w http.ResponseWriter, r *http.Request, claims map[string]any) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	email, ok := token.EmailClaim(claims)
	if !ok {
		writeMessage(w, http.StatusForbidden, "Forbidden access")
		return
	}
	purchases, err := s.store.ListPurchasesByEmail(r.Context(), email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

func (s *Server) handlePurchaseByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/purchaseById/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		purchase, err := s.store.GetPurchase(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, purchase)
	case http.MethodPut:
		var patch store.PurchasePatch
		if !s.decodeBody(w, r, &patch) {
			return
		}
		res, err := s.store.UpdatePurchase(r.Context(), id, patch)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodDelete:
		res, err := s.store.DeletePurchase(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Price float64 `json:"price"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	res, err := s.payments.CreatePaymentIntent(r.Context(), req.Price)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// fail maps any store or adapter error to the generic 500 response and logs
// it at the boundary.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	util.LoggerFromContext(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"err", err,
	)
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}
