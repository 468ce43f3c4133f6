package contact

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/server"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// Registrar ties the contact request routes into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	h := &handler{svc: NewContactService(r.appCtx), appCtx: r.appCtx}
	gate := r.appCtx.Gate
	admin := gate.RequireRole(access.OpAdministerContactRequests)

	router.Handle("/contact-requests", gate.RequireIdentity(http.HandlerFunc(h.create))).Methods(http.MethodPost)
	router.Handle("/contact-requests", admin(http.HandlerFunc(h.listAll))).Methods(http.MethodGet)
	router.Handle("/contact-requests/approve/{id}", admin(http.HandlerFunc(h.approve))).Methods(http.MethodPatch)
	router.Handle("/contact-requests/{email}", gate.RequireIdentity(http.HandlerFunc(h.listForUser))).Methods(http.MethodGet)
	router.Handle("/contact-requests/{id}", gate.RequireIdentity(http.HandlerFunc(h.delete))).Methods(http.MethodDelete)
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

	var in CreateInput
	if err := server.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	req, err := h.svc.CreateRequest(r.Context(), caller, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":    "Contact request created",
		"insertedId": req.ID,
		"biodataId":  req.BiodataID,
		"status":     req.Status,
	})
}

func (h *handler) listAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListAll(r.Context(), pagination.FromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ApproveRequest(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Contact request approved"})
}

func (h *handler) listForUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := access.IdentityFrom(r.Context())

	res, err := h.svc.ListForUser(r.Context(), caller, mux.Vars(r)["email"], pagination.FromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := access.IdentityFrom(r.Context())

	n, err := h.svc.DeleteRequest(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"deletedCount": n})
}
