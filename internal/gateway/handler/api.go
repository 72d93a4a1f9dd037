// Package handler exposes the gateway's HTTP surface. Handlers stay
// thin: decode the request, resolve the identity, delegate to a
// service, map errors to status codes.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"animaldex/internal/classifier"
	"animaldex/internal/gateway/middleware"
	uploadrepo "animaldex/internal/gateway/repository/upload"
	"animaldex/internal/gateway/service/auth"
	"animaldex/internal/gateway/service/events"
	"animaldex/internal/gateway/service/ledger"
	"animaldex/internal/gateway/service/prediction"
)

const maxUploadBytes = 10 << 20 // 10 MiB per photo

type API struct {
	log        *slog.Logger
	auth       *auth.Service
	prediction *prediction.Service
	ledger     *ledger.Service
	uploads    uploadrepo.Store
	hub        *events.Hub
}

func NewAPI(
	logger *slog.Logger,
	authSvc *auth.Service,
	predictionSvc *prediction.Service,
	ledgerSvc *ledger.Service,
	uploads uploadrepo.Store,
	hub *events.Hub,
) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		log:        logger,
		auth:       authSvc,
		prediction: predictionSvc,
		ledger:     ledgerSvc,
		uploads:    uploads,
		hub:        hub,
	}
}

type credentialsReq struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	err := a.auth.Register(r.Context(), req.Handle, req.Password)
	switch {
	case errors.Is(err, auth.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, "handle already exists")
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		respondJSON(w, http.StatusCreated, map[string]string{"handle": strings.TrimSpace(req.Handle)})
	}
}

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	token, err := a.auth.Login(r.Context(), req.Handle, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid handle or password")
		return
	}
	if err != nil {
		a.log.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"handle": strings.TrimSpace(req.Handle)})
}

func (a *API) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		a.auth.Logout(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

type profileResp struct {
	Handle          string   `json:"handle"`
	Level           int      `json:"level"`
	Badge           string   `json:"badge"`
	DiscoveredCount int      `json:"discovered_count"`
	Discovered      []string `json:"discovered"`
}

func (a *API) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	handle, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	p, err := a.ledger.Profile(r.Context(), handle)
	if err != nil {
		a.log.Error("profile lookup failed", "handle", handle, "error", err)
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, profileResp{
		Handle:          p.Handle.String(),
		Level:           p.Level,
		Badge:           p.Badge,
		DiscoveredCount: p.DiscoveredCount(),
		Discovered:      p.Discovered,
	})
}

func (a *API) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	handle, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}
	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return
	}

	result, err := a.prediction.SubmitPhoto(r.Context(), handle, image, header.Filename)
	if classifier.IsClassificationError(err) {
		a.log.Warn("classification rejected", "handle", handle, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "photo could not be classified")
		return
	}
	if err != nil {
		a.log.Error("predict failed", "handle", handle, "error", err)
		writeError(w, http.StatusBadGateway, "discovery could not be saved, please retry")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleUploads serves stored photos when the in-process upload store
// is the backend. With S3 configured, clients follow presigned URLs
// instead and this endpoint only sees stale links.
func (a *API) HandleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	handle, name, err := uploadrepo.ParseUploadPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed upload path")
		return
	}
	data, err := a.uploads.Get(r.Context(), handle, name)
	if errors.Is(err, uploadrepo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "upload not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload fetch failed")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
