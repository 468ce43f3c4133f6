package payment

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/server"
)

// Registrar ties the payment route into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	svc := NewPaymentService(r.appCtx)
	log := r.appCtx.Logger

	router.Handle("/create-payment-intent", r.appCtx.Gate.RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var in IntentInput
		if err := server.DecodeJSON(req, &in); err != nil {
			server.WriteError(w, log, err)
			return
		}
		secret, err := svc.CreateIntent(req.Context(), in)
		if err != nil {
			server.WriteError(w, log, err)
			return
		}
		server.WriteJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
	}))).Methods(http.MethodPost)
}
