package server

import "github.com/gorilla/mux"

// Registrar is a common interface for all HTTP route registrars
type Registrar interface {
	Register(r *mux.Router)
}
