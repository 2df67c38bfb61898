package response

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Issues  interface{} `json:"issues,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, APIResponse{
		Status: "success",
		Data:   data,
	})
}

func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, APIResponse{
		Status:  "error",
		Message: msg,
	})
}

// ErrorWithCode adds a machine readable code next to the message.
func ErrorWithCode(w http.ResponseWriter, status int, code, msg string) {
	write(w, status, APIResponse{
		Status:  "error",
		Code:    code,
		Message: msg,
	})
}

// ValidationError reports every violated field at once.
func ValidationError(w http.ResponseWriter, msg string, issues interface{}) {
	write(w, http.StatusBadRequest, APIResponse{
		Status:  "error",
		Code:    "VALIDATION_ERROR",
		Message: msg,
		Issues:  issues,
	})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
