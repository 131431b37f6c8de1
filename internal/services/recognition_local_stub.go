//go:build windows || !cgo

package services

import (
	"context"
	"errors"
)

// LocalRecognitionService is unavailable on Windows (stub)
type LocalRecognitionService struct{}

// NewLocalRecognitionService is not supported on Windows
func NewLocalRecognitionService(language string) (*LocalRecognitionService, error) {
	return nil, errors.New("local OCR is not available on Windows - use OCR_PROVIDER=remote or run in Docker")
}

// Recognize always fails on Windows
func (s *LocalRecognitionService) Recognize(ctx context.Context, imageURL string) (string, error) {
	return "", errors.New("local OCR is not available on Windows")
}
