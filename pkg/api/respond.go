package api

import (
	"encoding/json"
	"net/http"

	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, body any) {
	writeJSON(w, http.StatusOK, body)
}

// writeError maps err through pberrors and writes the
// {"error": "<message>"} envelope at the corresponding status.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, pberrors.HTTPStatus(err), errorBody{Error: err.Error()})
}

func decodeJSON(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return pberrors.Wrap(pberrors.KindInvalidRequest, "api: decode request body", err)
	}
	return nil
}
