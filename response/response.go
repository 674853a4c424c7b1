package response

import (
	"encoding/json"
	"net/http"

	"recipeshare_backend/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func OK(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusOK, payload)
}

// Error writes err in the error envelope with the status it carries.
func Error(w http.ResponseWriter, err error) {
	status, code := apierr.Status(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	JSON(w, status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}
