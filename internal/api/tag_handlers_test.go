package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTag_NormalizesName(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.registerTestUser(t, "ana@example.com").AccessToken

	resp := ts.api.Post("/api/v1/tags", "Authorization: Bearer "+token, map[string]any{
		"name": "  Weeknight Dinner  ",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "weeknight-dinner", created.Name)
}

func TestCreateTag_ExistingReturnsSameID(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.registerTestUser(t, "ana@example.com").AccessToken

	resp := ts.api.Post("/api/v1/tags", "Authorization: Bearer "+token, map[string]any{
		"name": "pasta",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var first TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))

	// Different casing resolves to the same tag.
	resp = ts.api.Post("/api/v1/tags", "Authorization: Bearer "+token, map[string]any{
		"name": "PASTA",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var second TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))

	assert.Equal(t, first.ID, second.ID)

	listResp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, listResp.Code)
	var list ListTagsResponse
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &list))
	assert.Len(t, list.Tags, 1)
}

func TestCreateTag_BlankName(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.registerTestUser(t, "ana@example.com").AccessToken

	resp := ts.api.Post("/api/v1/tags", "Authorization: Bearer "+token, map[string]any{
		"name": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "VALIDATION", apiErr.Code)
}
