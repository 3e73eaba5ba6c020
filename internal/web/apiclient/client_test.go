package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"testcracker/internal/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantOK     bool
		wantReason string
	}{
		{
			name: "canonical body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", health.ContentType)
				_, _ = w.Write([]byte(health.Body))
			},
			wantOK: true,
		},
		{
			name: "canonical body with trailing newline",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(health.Body + "\n"))
			},
			wantOK: true,
		},
		{
			name: "legacy plain text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("healthy"))
			},
			wantReason: `Unexpected response: "healthy"`,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(health.Body))
			},
			wantReason: "HTTP 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			got := New(srv.URL, time.Second).Health(context.Background())
			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestHealth_SendsNoCacheAndHitsHealthPath(t *testing.T) {
	var gotPath, gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCache = r.Header.Get("Cache-Control")
		_, _ = w.Write([]byte(health.Body))
	}))
	defer srv.Close()

	// trailing slash on the base URL must not produce //health
	require.True(t, New(srv.URL+"/", time.Second).Health(context.Background()).OK)
	assert.Equal(t, "/health", gotPath)
	assert.Equal(t, "no-cache", gotCache)
}

func TestHealth_NoBaseURL(t *testing.T) {
	got := New("", time.Second).Health(context.Background())
	assert.False(t, got.OK)
	assert.Equal(t, "API base URL not set", got.Reason)
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := New(url, time.Second).Health(context.Background())
	assert.False(t, got.OK)
	assert.NotEmpty(t, got.Reason)
}

func TestHealth_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	got := New(srv.URL, 50*time.Millisecond).Health(context.Background())
	assert.False(t, got.OK)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLoginAndRegister(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":401,"message":"invalid email or password"}`))
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":201,"message":"created","data":{"id":"u1","email":"a@x.com","name":"A","role":"STUDENT"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, time.Second)

	_, err := c.Login(context.Background(), "a@x.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid email or password", apiErr.Error())

	u, err := c.Register(context.Background(), "A", "a@x.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "STUDENT", u.Role)
}
