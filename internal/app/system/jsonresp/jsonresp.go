// Package jsonresp writes the {success, data} envelope every endpoint returns.
package jsonresp

import (
	"encoding/json"
	"net/http"
)

// DeniedMessage is the single message for both denial and missing resource.
const DeniedMessage = "access denied"

// Envelope is the response body shape.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Message is the data payload of a failure.
type Message struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes 200 {success:true, data}.
func OK(w http.ResponseWriter, data any) {
	if data == nil {
		data = struct{}{}
	}
	write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 {success:true, data}.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail writes {success:false, data:{message}} with status.
func Fail(w http.ResponseWriter, status int, msg string) {
	write(w, status, Envelope{Data: Message{Message: msg}})
}

// Invalid writes 400 with per-field messages.
func Invalid(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusBadRequest, Envelope{Data: Message{Message: "invalid input", Fields: fields}})
}

// Denied writes the uniform 403. It is used for missing records too, so a
// caller cannot probe which ids exist.
func Denied(w http.ResponseWriter) {
	Fail(w, http.StatusForbidden, DeniedMessage)
}

// Unauthorized writes 401 for requests with no signed-in user.
func Unauthorized(w http.ResponseWriter) {
	Fail(w, http.StatusUnauthorized, "unauthorized")
}

// ServerError writes 500 without leaking the cause.
func ServerError(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, "internal error")
}
