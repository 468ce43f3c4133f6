package user

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	svcErr "github.com/oggyb/loveknot/internal/errors"
	"github.com/oggyb/loveknot/internal/server"
	"github.com/oggyb/loveknot/internal/utils/pagination"
)

// Registrar ties the user routes into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the user handlers. Listing and role changes go through
// the role gate.
func (r *Registrar) Register(router *mux.Router) {
	h := &handler{svc: NewUserService(r.appCtx), appCtx: r.appCtx}
	gate := r.appCtx.Gate

	router.HandleFunc("/users", h.register).Methods(http.MethodPost)
	router.Handle("/users", gate.RequireRole(access.OpListUsers)(http.HandlerFunc(h.list))).Methods(http.MethodGet)
	router.HandleFunc("/users/role/{email}", h.role).Methods(http.MethodGet)
	router.HandleFunc("/users/{email}", h.byEmail).Methods(http.MethodGet)
	router.Handle("/users/{id}/make-admin", gate.RequireRole(access.OpAdministerUsers)(http.HandlerFunc(h.makeAdmin))).Methods(http.MethodPatch)
	router.Handle("/users/{id}/make-premium", gate.RequireRole(access.OpAdministerUsers)(http.HandlerFunc(h.makePremium))).Methods(http.MethodPatch)
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	server.WriteError(w, h.appCtx.Logger, err)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := server.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":    "User created successfully",
		"insertedId": u.ID,
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.List(r.Context(), pagination.FromQuery(q), q.Get("search"))
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) role(w http.ResponseWriter, r *http.Request) {
	role, err := h.svc.RoleOf(r.Context(), mux.Vars(r)["email"])
	if svcErr.Is(err, svcErr.KindNotFound) {
		server.WriteJSON(w, http.StatusNotFound, map[string]any{"role": nil})
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"role": role})
}

func (h *handler) byEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.FindByEmail(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, u)
}

func (h *handler) makeAdmin(w http.ResponseWriter, r *http.Request) {
	changed, err := h.svc.MakeAdmin(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	modified := 0
	if changed {
		modified = 1
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "User role updated to admin",
		"modifiedCount": modified,
	})
}

func (h *handler) makePremium(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ApprovePremium(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"message": "User has been made premium successfully"})
}
