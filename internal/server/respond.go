package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	svcErr "github.com/oggyb/loveknot/internal/errors"
)

// maxBodyBytes caps request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and a {"message": ...} body.
// Internal errors are logged with their cause; the client only sees a generic message.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "err", err)
	}
	WriteJSON(w, status, map[string]string{"message": svcErr.PublicMessage(err)})
}

// DecodeJSON reads a JSON body into dst. Malformed bodies become validation errors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return svcErr.InvalidArgument("request body is required")
		}
		return &svcErr.Error{Kind: svcErr.KindValidation, Message: "invalid request payload", Err: err}
	}
	return nil
}
