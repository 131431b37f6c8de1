//go:build !windows && cgo

package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// LocalRecognitionService runs tesseract on this host instead of calling the
// remote provider. Selected with OCR_PROVIDER=local.
type LocalRecognitionService struct {
	language   string
	httpClient *http.Client
}

// NewLocalRecognitionService creates a tesseract-backed recognizer
func NewLocalRecognitionService(language string) (*LocalRecognitionService, error) {
	// Fail at startup if tesseract is unusable, not on the first request.
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	return &LocalRecognitionService{
		language: language,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// Recognize fetches the image and extracts its text with tesseract
func (s *LocalRecognitionService) Recognize(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: image fetch returned status %d", ErrRecognitionFailed, resp.StatusCode)
	}

	imageBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	// gosseract reads from a file path
	tmpFile, err := os.CreateTemp("", "ocr-*.img")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(imageBytes); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(s.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImage(tmpFile.Name()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrRecognitionFailed
	}

	return text, nil
}
