package story

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oggyb/loveknot/internal/app"
	"github.com/oggyb/loveknot/internal/server"
)

// Registrar ties the success story routes into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router *mux.Router) {
	svc := NewStoryService(r.appCtx)
	log := r.appCtx.Logger

	router.HandleFunc("/api/success-stories", func(w http.ResponseWriter, req *http.Request) {
		stories, err := svc.List(req.Context())
		if err != nil {
			server.WriteError(w, log, err)
			return
		}
		server.WriteJSON(w, http.StatusOK, stories)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/success-stories", func(w http.ResponseWriter, req *http.Request) {
		var in CreateInput
		if err := server.DecodeJSON(req, &in); err != nil {
			server.WriteError(w, log, err)
			return
		}
		story, err := svc.Create(req.Context(), in)
		if err != nil {
			server.WriteError(w, log, err)
			return
		}
		server.WriteJSON(w, http.StatusCreated, map[string]any{
			"message":      "Success story created successfully!",
			"successStory": story,
			"insertedId":   story.ID,
		})
	}).Methods(http.MethodPost)
}
