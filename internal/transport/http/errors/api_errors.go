package errors

import (
	"encoding/json"
	"net/http"
)

// Code is the machine-readable reason attached to a failed admin API call.
type Code string

const (
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeParticipantNotFound Code = "PARTICIPANT_NOT_FOUND"
	CodeServiceUnavailable  Code = "SERVICE_UNAVAILABLE"
	CodeInternal            Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeForbidden:           http.StatusForbidden,
	CodeValidation:          http.StatusBadRequest,
	CodeParticipantNotFound: http.StatusNotFound,
	CodeServiceUnavailable:  http.StatusServiceUnavailable,
}

// Status is the HTTP status sent with c. Unknown codes are internal errors.
func (c Code) Status() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Service string `json:"service,omitempty"`
}

func (e APIError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Fail answers with code and its status.
func Fail(w http.ResponseWriter, code Code, message string) {
	JSON(w, code.Status(), APIError{Code: code, Message: message})
}

// Unavailable reports a backing service this instance runs without.
func Unavailable(w http.ResponseWriter, service string) {
	JSON(w, http.StatusServiceUnavailable, APIError{
		Code:    CodeServiceUnavailable,
		Message: service + " service is unavailable",
		Service: service,
	})
}
