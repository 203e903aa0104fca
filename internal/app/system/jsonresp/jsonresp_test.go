package jsonresp_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDenied(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonresp.Denied(rec)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]any{"message": "access denied"}, body["data"])
}

func TestOK_NilDataIsEmptyObject(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonresp.OK(rec, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{}}`, rec.Body.String())
}

func TestInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonresp.Invalid(rec, map[string]string{"title": "required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"data":{"message":"invalid input","fields":{"title":"required"}}}`,
		rec.Body.String())
}

func TestError_Mapping(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"denied", jsonresp.ErrDenied, http.StatusForbidden},
		{"wrapped denied", fmt.Errorf("load: %w", jsonresp.ErrDenied), http.StatusForbidden},
		{"fields", jsonresp.FieldErrors{"title": "required"}, http.StatusBadRequest},
		{"conflict", jsonresp.Conflict{Msg: "already a member"}, http.StatusConflict},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			jsonresp.Error(rec, req, zap.NewNop(), tt.err)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"title":"Casa"}`))
	require.NoError(t, jsonresp.Decode(httptest.NewRecorder(), req, &v))
	assert.Equal(t, "Casa", v.Title)

	bad := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"title":`))
	err := jsonresp.Decode(httptest.NewRecorder(), bad, &v)
	var fe jsonresp.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "body")
}
