package evoapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMedia(t *testing.T) {
	var got MediaMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/message/sendMedia/pdv", r.URL.Path)
		assert.Equal(t, "k3y", r.Header.Get("apikey"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"key":{"id":"ABC"},"status":"PENDING"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	msg := NewImageMessage("5511999990000", []byte{0xff, 0xd8}, "ingresso_0001.jpg", "Olá Ana")
	resp, err := c.SendMedia(context.Background(), Config{BaseURL: srv.URL + "/", APIKey: "k3y", Instance: "pdv"}, msg)
	require.NoError(t, err)

	assert.Contains(t, string(resp), "PENDING")
	assert.Equal(t, "image", got.MediaType)
	assert.Equal(t, "image/jpeg", got.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8}), got.Media)
	assert.Equal(t, "5511999990000", got.Number)
}

func TestSendMediaAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"number not on whatsapp"}`))
	}))
	defer srv.Close()

	_, err := NewClient(time.Second).SendMedia(context.Background(),
		Config{BaseURL: srv.URL, APIKey: "k", Instance: "i"}, MediaMessage{Number: "55"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "number not on whatsapp")
}

func TestSendMediaRequiresConfig(t *testing.T) {
	_, err := NewClient(0).SendMedia(context.Background(), Config{BaseURL: "http://x"}, MediaMessage{})
	assert.ErrorIs(t, err, ErrMissingConfig)
}
