// Package handlers contains the thin HTTP layer: decode, validate, call a
// service, encode. All domain behavior lives in the services packages.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chatbridge/chatbridge/utils"
)

// decodeJSON decodes a request body into dst, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeRequestError maps a rejected request to a 400. Validation errors
// carry their per-field details in the response body; any other error just
// carries its message.
func writeRequestError(w http.ResponseWriter, err error) {
	if utils.IsValidationError(err) {
		_ = utils.WriteBadRequest(w, err.Error(), validationDetails(err))
		return
	}
	_ = utils.WriteBadRequest(w, err.Error(), nil)
}

// validationDetails renders validator field errors for the response body
func validationDetails(err error) map[string]interface{} {
	fields := utils.GetValidationFields(err)
	if fields == nil {
		return nil
	}
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return details
}
