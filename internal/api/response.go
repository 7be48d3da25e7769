package api

import (
	"encoding/json"
	"net/http"

	"github.com/sungwon/mail-relay/internal/validator"
)

// Response texts.
const (
	msgEmailSent      = "Email sent successfully!"
	msgEmailFailed    = "Failed to send email."
	msgInvalidRequest = "Invalid request data."
	msgMalformedJSON  = "Malformed JSON body."
	msgBodyTooLarge   = "Request body too large."
	msgInternalError  = "An internal server error occurred."
	msgDatabaseDown   = "database unavailable"
	livenessText      = "Email server is running!"
)

type messageResponse struct {
	Message string `json:"message"`
}

type validationErrorResponse struct {
	Message string           `json:"message"`
	Errors  validator.Issues `json:"errors"`
}

// respondJSON writes a JSON response with the given status code and data.
// If data is nil, only the status code and Content-Type header are written.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondMessage writes a {"message": ...} response.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// respondValidationErrors writes a 422 response listing every issue in order.
func respondValidationErrors(w http.ResponseWriter, issues validator.Issues) {
	respondJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
		Message: msgInvalidRequest,
		Errors:  issues,
	})
}
