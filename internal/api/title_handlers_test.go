package api

import (
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTitle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="Crispy Gnocchi in 15 Minutes">
			<title>fallback title</title>
		</head><body></body></html>`))
	}))
	defer page.Close()

	token := ts.registerTestUser(t, "ana@example.com").AccessToken

	resp := ts.api.Get("/api/v1/title?url="+url.QueryEscape(page.URL), "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body TitleResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Crispy Gnocchi in 15 Minutes", body.Title)
}

func TestFetchTitle_Unreachable(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.registerTestUser(t, "ana@example.com").AccessToken

	// A closed server gives a connection error, reported as not found.
	page := httptest.NewServer(http.NotFoundHandler())
	page.Close()

	resp := ts.api.Get("/api/v1/title?url="+url.QueryEscape(page.URL), "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}
