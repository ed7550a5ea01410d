package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("order 4: %w", ErrNotFound), http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrUpstream, http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestRespondErrorWithData(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondErrorWith(rr, ErrConflict, map[string]string{"state": "submitting"})

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, http.StatusConflict, body.Status)
	assert.Equal(t, map[string]any{"state": "submitting"}, body.Data)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "a", "extra": 1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "a"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "a", target.Name)
}
