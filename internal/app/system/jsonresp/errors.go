package jsonresp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/system/limits"
	"go.uber.org/zap"
)

// ErrDenied is returned by actions when the policy refuses, or when the
// record does not exist. Both map to the uniform 403.
var ErrDenied = errors.New(DeniedMessage)

// FieldErrors is a validation failure keyed by input field.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return fmt.Sprintf("invalid input (%d fields)", len(fe))
}

// Conflict is a request that was valid but lost against the current state
// (already a member, status changed underneath, ...).
type Conflict struct {
	Msg string
}

func (c Conflict) Error() string { return c.Msg }

// Error maps err onto a response. Unknown errors are logged and become a
// plain 500.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var fe FieldErrors
	var conflict Conflict
	switch {
	case errors.Is(err, ErrDenied):
		Denied(w)
	case errors.As(err, &fe):
		Invalid(w, fe)
	case errors.As(err, &conflict):
		Fail(w, http.StatusConflict, conflict.Msg)
	default:
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		ServerError(w)
	}
}

// Decode reads a JSON body of at most limits.MaxJSONBody into v. A
// malformed body is reported as a FieldErrors on "body".
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return FieldErrors{"body": "request body is empty"}
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return FieldErrors{"body": "request body is too large"}
		}
		return FieldErrors{"body": "malformed JSON"}
	}
	return nil
}

// ParseForm parses a form body of at most limits.MaxFormBody.
func ParseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormBody)
	if err := r.ParseForm(); err != nil {
		return FieldErrors{"body": "malformed form"}
	}
	return nil
}
