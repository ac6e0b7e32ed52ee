package respond

import (
	"encoding/json"
	"log"
	"net/http"
)

// errorBody is the uniform error shape: {"message": "..."}.
type errorBody struct {
	Message string `json:"message"`
}

// JSON writes payload as the response body with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode payload failed: %v", err)
	}
}

// Error writes a client-safe error message. Internals never travel in
// this body; they are logged at the call site.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Message: message})
}
