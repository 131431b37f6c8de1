package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecognizeReturnsFirstParsedTextVerbatim(t *testing.T) {
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = map[string]string{
			"apikey":            r.PostFormValue("apikey"),
			"url":               r.PostFormValue("url"),
			"language":          r.PostFormValue("language"),
			"isOverlayRequired": r.PostFormValue("isOverlayRequired"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"hello\nworld "},{"ParsedText":"second"}]}`))
	}))
	t.Cleanup(srv.Close)

	svc := NewRecognitionService(srv.URL, "test-key", "eng")

	text, err := svc.Recognize(context.Background(), "https://example.com/photo.png")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "hello\nworld " {
		t.Fatalf("Recognize = %q, want first segment verbatim", text)
	}

	want := map[string]string{
		"apikey":            "test-key",
		"url":               "https://example.com/photo.png",
		"language":          "eng",
		"isOverlayRequired": "false",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Fatalf("form field %s = %q, want %q", k, gotForm[k], v)
		}
	}
}

func TestRecognizeFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantFailure bool // expect ErrRecognitionFailed specifically
	}{
		{name: "empty parsed results", status: http.StatusOK, body: `{"ParsedResults":[]}`, wantFailure: true},
		{name: "missing parsed results", status: http.StatusOK, body: `{}`, wantFailure: true},
		{name: "errored on processing", status: http.StatusOK, body: `{"IsErroredOnProcessing":true,"ErrorMessage":"bad key"}`, wantFailure: true},
		{name: "provider error status", status: http.StatusForbidden, body: `{}`, wantFailure: true},
		{name: "malformed body", status: http.StatusOK, body: `not json`, wantFailure: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			svc := NewRecognitionService(srv.URL, "test-key", "eng")

			_, err := svc.Recognize(context.Background(), "https://example.com/photo.png")
			if err == nil {
				t.Fatal("Recognize: expected error, got nil")
			}
			if tt.wantFailure && !errors.Is(err, ErrRecognitionFailed) {
				t.Fatalf("Recognize error = %v, want ErrRecognitionFailed", err)
			}
		})
	}
}

func TestRecognizePropagatesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force a connection error

	svc := NewRecognitionService(srv.URL, "test-key", "eng")

	_, err := svc.Recognize(context.Background(), "https://example.com/photo.png")
	if err == nil {
		t.Fatal("Recognize: expected transport error, got nil")
	}
}
