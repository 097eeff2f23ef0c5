package takkencrawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPISinkPostsRecord(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/item/", r.URL.Path)
		assert.Equal(t, contentType, r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "relay", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := newAPISink(SinkConfig{APIEndpoint: srv.URL + "/", APIUsername: "relay", APIPassword: "secret"}, srv.Client())
	record := MirroredRecord{Record: detailRecord(1), Source: "https://example.com", CreatedAt: time.Now()}

	require.NoError(t, sink.Write(context.Background(), record))
	assert.Equal(t, "株式会社1", got["company_name"])
	assert.Equal(t, "03-1111-0001", got["phone_number"])
	assert.Equal(t, "https://example.com", got["source"])
	assert.NotContains(t, got, "class")
	assert.NoError(t, sink.Close())
}

func TestAPISinkReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sink := newAPISink(SinkConfig{APIEndpoint: srv.URL}, srv.Client())
	err := sink.Write(context.Background(), MirroredRecord{Record: detailRecord(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "quota exceeded")
}
