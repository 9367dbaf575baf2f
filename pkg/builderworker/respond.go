package builderworker

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

func decodeJSON(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return pberrors.Wrap(pberrors.KindInvalidRequest, "builderworker: decode request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, pberrors.HTTPStatus(err), map[string]string{"error": err.Error()})
}

func parseVersion(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, pberrors.InvalidRequestf("builderworker: invalid version %q", raw)
	}
	return v, nil
}
