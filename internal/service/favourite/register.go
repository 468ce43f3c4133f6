package favourite

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/server"
)

// Registrar ties the favourites routes into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	h := &handler{svc: NewFavouriteService(r.appCtx), appCtx: r.appCtx}
	gate := r.appCtx.Gate

	router.Handle("/favourites", gate.RequireIdentity(http.HandlerFunc(h.list))).Methods(http.MethodGet)
	router.Handle("/favourites", gate.RequireIdentity(http.HandlerFunc(h.add))).Methods(http.MethodPost)
	router.Handle("/favourites/{id}", gate.RequireIdentity(http.HandlerFunc(h.remove))).Methods(http.MethodDelete)
}

type handler struct {
	svc    *Service
	appCtx *app.AppContext
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	caller, _ := access.IdentityFrom(r.Context())

	res, err := h.svc.ListForUser(r.Context(), caller, r.URL.Query().Get("email"))
	if err != nil {
		server.WriteError(w, h.appCtx.Logger, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) add(w http.ResponseWriter, r *http.Request) {
	caller, _ := access.IdentityFrom(r.Context())

	var in AddInput
	if err := server.DecodeJSON(r, &in); err != nil {
		server.WriteError(w, h.appCtx.Logger, err)
		return
	}
	fav, err := h.svc.Add(r.Context(), caller, in)
	if err != nil {
		server.WriteError(w, h.appCtx.Logger, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":    "Added to favourites",
		"insertedId": fav.ID,
	})
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	caller, _ := access.IdentityFrom(r.Context())

	n, err := h.svc.Remove(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		server.WriteError(w, h.appCtx.Logger, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"deletedCount": n})
}
