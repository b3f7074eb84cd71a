package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain; charset=utf-8",
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)
	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteResponseBytesOK(w http.ResponseWriter, contentType string, message []byte) {
	WriteResponseBytes(w, contentType, message, http.StatusOK)
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

// SendJsonResponse marshals the payload and writes it with the given status.
func SendJsonResponse(w http.ResponseWriter, statusCode int, payload any) {
	respBytes, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal json response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, statusCode)
}

type ApiErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewApiError exposes the real error text only while in development.
func NewApiError(err error, fallbackMessage string, development bool) ApiErrorResponse {
	message := fallbackMessage
	if development && err != nil {
		message = err.Error()
	}
	return ApiErrorResponse{
		Success: false,
		Error:   message,
	}
}

// SendApiError writes the {success:false, error} body used by every JSON endpoint.
func SendApiError(w http.ResponseWriter, statusCode int, err error, fallbackMessage string, development bool) {
	SendJsonResponse(w, statusCode, NewApiError(err, fallbackMessage, development))
}
