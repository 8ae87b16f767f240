package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWhisperRequiresKey(t *testing.T) {
	_, err := NewWhisper()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestWhisperTranscribe(t *testing.T) {
	var (
		form     map[string]string
		filename string
		payload  []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		filename = hdr.Filename
		payload, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "  hola, ¿qué hora es?  "}`))
	}))
	defer srv.Close()

	wh, err := NewWhisper(
		WithAPIKey("k"),
		WithBaseURL(srv.URL+"/v1"),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	text, err := wh.Transcribe(context.Background(), Audio{Data: []byte("RIFF....")})
	require.NoError(t, err)

	assert.Equal(t, "hola, ¿qué hora es?", text)
	assert.Equal(t, DefaultFilename, filename)
	assert.Equal(t, []byte("RIFF...."), payload)
	assert.Equal(t, "whisper-1", form["model"])
	assert.Equal(t, "es", form["language"])
	assert.Equal(t, DefaultPrompt, form["prompt"])
}

func TestWhisperEmptyAudio(t *testing.T) {
	wh, err := NewWhisper(WithAPIKey("k"))
	require.NoError(t, err)

	_, err = wh.Transcribe(context.Background(), Audio{})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestWhisperProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	wh, err := NewWhisper(WithAPIKey("k"), WithBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	_, err = wh.Transcribe(context.Background(), Audio{Data: []byte{1}, Filename: "clip.wav"})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "whisper", pe.Provider)
}

func TestMock(t *testing.T) {
	m := NewMock("hola")
	text, err := m.Transcribe(context.Background(), Audio{Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "hola", text)
	assert.Equal(t, 1, m.CallCount())

	failing := WithError(errors.New("offline"))
	_, err = failing.Transcribe(context.Background(), Audio{})
	assert.EqualError(t, err, "offline")
}
