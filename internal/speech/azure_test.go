package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))
		assert.Equal(t, "es-ES", r.URL.Query().Get("language"))
		w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"predice bitcoin a 2 años"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Key: "secret", Endpoint: srv.URL})
	got, err := c.Transcribe(context.Background(), []byte("RIFF...."), "audio/wav")
	assert.NoError(t, err)
	assert.Equal(t, "predice bitcoin a 2 años", got.Text)
	assert.Equal(t, "Success", got.Status)
}

func TestTranscribeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RecognitionStatus":"NoMatch"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Key: "secret", Endpoint: srv.URL})
	got, err := c.Transcribe(context.Background(), []byte("RIFF...."), "")
	assert.NoError(t, err)
	assert.Empty(t, got.Text)
	assert.Equal(t, "NoMatch", got.Status)
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{Key: "bad", Endpoint: srv.URL})
	_, err := c.Transcribe(context.Background(), []byte("RIFF...."), "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTranscribeNotConfigured(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.Configured())

	_, err := c.Transcribe(context.Background(), []byte("RIFF...."), "")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestRegionEndpoint(t *testing.T) {
	c := NewClient(Config{Key: "k", Region: "eastus"})
	assert.Equal(t, "https://eastus.stt.speech.microsoft.com", c.endpoint)
	assert.True(t, c.Configured())
}
