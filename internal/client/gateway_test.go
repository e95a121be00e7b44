package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
)

func TestGatewayRoutesAndBodies(t *testing.T) {
	var lastMethod, lastPath, lastQuery string
	var lastBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod = r.Method
		lastPath = r.URL.Path
		lastQuery = r.URL.RawQuery
		lastBody = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/directories":
			_, _ = w.Write([]byte(`[{"id":1,"name":"A","code":"c","fields":[],"fieldCount":0,"recordCount":2}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/directories":
			_, _ = w.Write([]byte(`{"id":10,"name":"A","code":"c10","fields":[]}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/directories/10":
			_, _ = w.Write([]byte(`{"id":10,"name":"B","code":"c10","fields":[]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/records/10":
			_, _ = w.Write([]byte(`{"content":[{"id":1,"values":{"x":"y"}}],"page":{"size":200,"number":0,"totalElements":1,"totalPages":1}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/records/10":
			_, _ = w.Write([]byte(`{"id":2,"values":{"x":"y"}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/records/2":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("неожиданный запрос: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	g := NewGateway(srv.URL)
	ctx := context.Background()

	dirs, err := g.ListDirectories(ctx)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, int64(2), dirs[0].RecordCount)

	created, err := g.CreateDirectory(ctx, model.DirectoryCreate{Name: "A", Fields: []model.Field{}})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
	assert.Equal(t, "A", lastBody["name"])

	updated, err := g.UpdateDirectory(ctx, model.Directory{ID: 10, Name: "B", Code: "c10", Fields: []model.Field{}})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, http.MethodPut, lastMethod)

	page, err := g.ListRecords(ctx, 10, 0, 200, "")
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Contains(t, lastQuery, "size=200")

	rec, err := g.CreateRecord(ctx, 10, map[string]any{"x": "y"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.ID)
	values, ok := lastBody["values"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "y", values["x"])

	require.NoError(t, g.DeleteRecord(ctx, 2))
	assert.Equal(t, "/api/records/2", lastPath)
}

func TestGatewaySurfacesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Field 'x' must be a number","status":"Bad Request","timestamp":"2026-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL)
	_, err := g.CreateRecord(context.Background(), 1, map[string]any{"x": "oops"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Field 'x' must be a number", apiErr.Error())
}

func TestGatewayStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL)
	_, err := g.ListDirectories(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "502")
}
