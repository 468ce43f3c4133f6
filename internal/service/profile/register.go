package profile

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/server"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// Registrar ties the profile routes into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the profile service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the profile handlers to the router
func (r *Registrar) Register(router *mux.Router) {
	h := &handler{svc: NewProfileService(r.appCtx), appCtx: r.appCtx}
	gate := r.appCtx.Gate

	router.Handle("/profile", gate.RequireIdentity(http.HandlerFunc(h.create))).Methods(http.MethodPost)
	router.Handle("/profile/premium-request/{id}", gate.RequireIdentity(http.HandlerFunc(h.requestPremium))).Methods(http.MethodPatch)
	router.HandleFunc("/profile/{email}", h.byEmail).Methods(http.MethodGet)
	router.HandleFunc("/profiles", h.listAll).Methods(http.MethodGet)
	router.HandleFunc("/biodata", h.listByType).Methods(http.MethodGet)
	router.HandleFunc("/biodata/{id}", h.byID).Methods(http.MethodGet)
	router.HandleFunc("/biodata-by-id/{id}", h.byBiodataID).Methods(http.MethodGet)
	router.HandleFunc("/premium-profiles", h.premium).Methods(http.MethodGet)
	router.Handle("/dashboard/approvedPremium", gate.RequireIdentity(http.HandlerFunc(h.premiumRequests))).Methods(http.MethodGet)
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	server.WriteError(w, h.appCtx.Logger, err)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	caller, _ := access.IdentityFrom(r.Context())

	var in Input
	if err := server.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}

	p, err := h.svc.CreateProfile(r.Context(), caller, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":    "Biodata created successfully",
		"insertedId": p.ID,
		"biodataId":  p.BiodataID,
	})
}

func (h *handler) requestPremium(w http.ResponseWriter, r *http.Request) {
	caller, _ := access.IdentityFrom(r.Context())

	changed, err := h.svc.RequestPremium(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	modified := 0
	if changed {
		modified = 1
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "Premium requested",
		"modifiedCount": modified,
	})
}

func (h *handler) byEmail(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.FindByEmail(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) listAll(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, profiles)
}

func (h *handler) listByType(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.ListByType(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, profiles)
}

func (h *handler) byID(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) byBiodataID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		h.fail(w, svcErr.InvalidArgument("biodata id must be a positive integer"))
		return
	}
	p, err := h.svc.FindByBiodataID(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) premium(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	profiles, err := h.svc.ListPremiumApproved(r.Context(), q.Get("order") == "desc", limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, profiles)
}

func (h *handler) premiumRequests(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPremiumRequests(r.Context(), pagination.FromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}
