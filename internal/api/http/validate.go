package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON parses the body into dst and runs struct validation. Unknown
// fields are rejected at the boundary. Writes the 400 envelope itself and
// reports whether the caller may proceed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		fail(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}
