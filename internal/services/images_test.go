package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePassthrough(t *testing.T) {
	resolver := NewImageResolver(nil, testLogger())
	ctx := context.Background()

	assert.Equal(t, "", resolver.Resolve(ctx, ""))

	const uri = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="
	assert.Equal(t, uri, resolver.Resolve(ctx, uri))

	// Opaque references are stored as-is, no network round trip.
	assert.Equal(t, "uploads/rice.png", resolver.Resolve(ctx, "uploads/rice.png"))
}

func TestResolveFetchesRemoteImage(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	resolver := NewImageResolver(server.Client(), testLogger())
	got := resolver.Resolve(context.Background(), server.URL)

	want := fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(payload))
	assert.Equal(t, want, got)
}

func TestResolveDefaultsContentType(t *testing.T) {
	payload := []byte("jpeg-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil // suppress sniffing
		w.Write(payload)
	}))
	defer server.Close()

	resolver := NewImageResolver(server.Client(), testLogger())
	got := resolver.Resolve(context.Background(), server.URL)

	want := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(payload))
	assert.Equal(t, want, got)
}

func TestResolveNonSuccessStatusDropsImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	resolver := NewImageResolver(server.Client(), testLogger())
	assert.Equal(t, "", resolver.Resolve(context.Background(), server.URL))
}
