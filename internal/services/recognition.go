package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// ErrRecognitionFailed means the OCR provider returned no usable text.
var ErrRecognitionFailed = errors.New("failed to extract text from image")

// Recognizer converts an image, addressed by URL, into text.
type Recognizer interface {
	Recognize(ctx context.Context, imageURL string) (string, error)
}

// RecognitionService calls the ocr.space parse API.
type RecognitionService struct {
	apiURL     string
	apiKey     string
	language   string
	httpClient *http.Client
}

// NewRecognitionService creates a client for the remote OCR endpoint
func NewRecognitionService(apiURL, apiKey, language string) *RecognitionService {
	return &RecognitionService{
		apiURL:   apiURL,
		apiKey:   apiKey,
		language: language,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// parseResponse mirrors the ocr.space response body
type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// Recognize sends the image URL to the provider and returns the first parsed
// text segment verbatim. It makes exactly one attempt; any transport error,
// provider error or empty result fails the call.
func (s *RecognitionService) Recognize(ctx context.Context, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("apikey", s.apiKey)
	form.Set("url", imageURL)
	form.Set("language", s.language)
	form.Set("isOverlayRequired", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: provider returned status %d", ErrRecognitionFailed, resp.StatusCode)
	}

	var body parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to parse OCR response: %w", err)
	}

	if body.IsErroredOnProcessing || len(body.ParsedResults) == 0 {
		return "", ErrRecognitionFailed
	}

	return body.ParsedResults[0].ParsedText, nil
}
