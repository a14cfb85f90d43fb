package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	var pd ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pd))
	return pd
}

func TestStatusHelpers(t *testing.T) {
	cases := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		title  string
		detail string
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, errors.New("no such account")) },
			http.StatusNotFound, "Not Found", "no such account"},
		{"duplicate", func(w http.ResponseWriter) { Duplicate(w, errors.New("code taken")) },
			http.StatusConflict, "Duplicate", "code taken"},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, errors.New("period closed")) },
			http.StatusConflict, "Conflict", "period closed"},
		{"unprocessable", func(w http.ResponseWriter) { Unprocessable(w, errors.New("entry unbalanced")) },
			http.StatusUnprocessableEntity, "Unprocessable", "entry unbalanced"},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "invalid JSON body") },
			http.StatusBadRequest, "Bad Request", "invalid JSON body"},
		{"validation", func(w http.ResponseWriter) { ValidationFailed(w, errors.New("Name is required")) },
			http.StatusBadRequest, "Validation Failed", "Name is required"},
		{"internal", Internal,
			http.StatusInternalServerError, "Internal Error", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.write(rec)

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			pd := decodeProblem(t, rec)
			require.Equal(t, "about:blank", pd.Type)
			require.Equal(t, tc.title, pd.Title)
			require.Equal(t, tc.status, pd.Status)
			require.Equal(t, tc.detail, pd.Detail)
		})
	}
}
