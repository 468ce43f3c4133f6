package stats

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/server"
)

// Registrar ties the reporting routes into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	svc := NewStatsService(r.appCtx)
	log := r.appCtx.Logger

	router.Handle("/admin-dashboard/stats", r.appCtx.Gate.RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		out, err := svc.Admin(req.Context())
		if err != nil {
			server.WriteError(w, log, err)
			return
		}
		server.WriteJSON(w, http.StatusOK, out)
	}))).Methods(http.MethodGet)

	router.HandleFunc("/api/success-counter", func(w http.ResponseWriter, req *http.Request) {
		out, err := svc.Counter(req.Context())
		if err != nil {
			server.WriteError(w, log, err)
			return
		}
		server.WriteJSON(w, http.StatusOK, out)
	}).Methods(http.MethodGet)
}
