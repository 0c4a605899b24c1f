package companyhandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"staffing/internal/domain/audit"
	"staffing/internal/domain/auth"
	"staffing/internal/domain/company"
	"staffing/internal/transport/http/api"
	"staffing/internal/transport/http/middleware"
	"staffing/internal/transport/http/shared"
)

type Service interface {
	ListClients(ctx context.Context, limit, offset int) ([]company.Client, int, error)
	CreateClient(ctx context.Context, c company.Client) (company.Client, error)
	GetClient(ctx context.Context, id string) (company.Client, error)
	ListEndUsers(ctx context.Context, clientID string) ([]company.EndUser, error)
	CreateEndUser(ctx context.Context, u company.EndUser) (company.EndUser, error)
	Settings(ctx context.Context) (company.Settings, error)
	UpdateSettings(ctx context.Context, st company.Settings) (company.Settings, error)
}

type Handler struct {
	Service Service
	Audit   shared.Auditor
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, auditor shared.Auditor, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditor, Perms: perms}
}

type clientPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
	Email   string `json:"email"`
}

type endUserPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type settingsPayload struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	GSTIN       string `json:"gstin"`
	PAN         string `json:"pan"`
	BankDetails string `json:"bankDetails"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCompanyRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCompanyWrite, h.Perms)

	r.Route("/clients", func(r chi.Router) {
		r.With(read).Get("/", h.handleListClients)
		r.With(write).Post("/", h.handleCreateClient)
		r.Route("/{clientID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetClient)
			r.With(read).Get("/end-users", h.handleListEndUsers)
			r.With(write).Post("/end-users", h.handleCreateEndUser)
		})
	})
	r.Route("/company", func(r chi.Router) {
		r.With(read).Get("/settings", h.handleGetSettings)
		r.With(write).Put("/settings", h.handleUpdateSettings)
	})
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	clients, total, err := h.Service.ListClients(r.Context(), page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "client_list_failed")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, clients, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload clientPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, reqID) {
		return
	}

	client, err := h.Service.CreateClient(r.Context(), company.Client{
		Name:    payload.Name,
		Address: payload.Address,
		GSTIN:   payload.GSTIN,
		Email:   payload.Email,
	})
	if err != nil {
		shared.WriteError(w, r, err, "client_create_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityClient,
		EntityID:   client.ID,
		After:      client,
	})
	api.Created(w, client, reqID)
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.GetClient(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, r, err, "client_get_failed")
		return
	}
	api.Success(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEndUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListEndUsers(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, r, err, "end_user_list_failed")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEndUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload endUserPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, reqID) {
		return
	}

	endUser, err := h.Service.CreateEndUser(r.Context(), company.EndUser{
		ClientCompanyID: chi.URLParam(r, "clientID"),
		Name:            payload.Name,
		Address:         payload.Address,
	})
	if err != nil {
		shared.WriteError(w, r, err, "end_user_create_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityEndUser,
		EntityID:   endUser.ID,
		After:      endUser,
	})
	api.Created(w, endUser, reqID)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Settings(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "settings_get_failed")
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload settingsPayload
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, reqID) {
		return
	}

	settings, err := h.Service.UpdateSettings(r.Context(), company.Settings{
		Name:        payload.Name,
		Address:     payload.Address,
		GSTIN:       payload.GSTIN,
		PAN:         payload.PAN,
		BankDetails: payload.BankDetails,
	})
	if err != nil {
		shared.WriteError(w, r, err, "settings_update_failed")
		return
	}
	redacted := settings
	if redacted.BankDetails != "" {
		redacted.BankDetails = "[redacted]"
	}
	shared.RecordAudit(r, h.Audit, user.UserID, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntitySettings,
		EntityID:   "company",
		After:      redacted,
	})
	api.Success(w, settings, reqID)
}
