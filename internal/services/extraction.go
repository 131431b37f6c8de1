package services

import (
	"context"

	"github.com/ydkdan6/ocrtext/internal/models"
)

// ResultSaver persists a completed extraction.
type ResultSaver interface {
	SaveResult(ctx context.Context, req *models.SaveResultRequest) (*models.OCRResult, error)
}

// ExtractionService composes the asset store, the recognizer and the result
// store into a single extract-and-save operation. Each step's failure aborts
// the operation and surfaces unchanged; nothing is persisted on failure.
type ExtractionService struct {
	recognizer Recognizer
	assets     AssetStore
	results    ResultSaver
}

// NewExtractionService creates the extraction orchestrator
func NewExtractionService(recognizer Recognizer, assets AssetStore, results ResultSaver) *ExtractionService {
	return &ExtractionService{
		recognizer: recognizer,
		assets:     assets,
		results:    results,
	}
}

// ExtractFromURL recognizes the image at the given URL and persists the result
func (s *ExtractionService) ExtractFromURL(ctx context.Context, imageURL, userID string, fileName *string) (*models.OCRResult, error) {
	text, err := s.recognizer.Recognize(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	return s.results.SaveResult(ctx, &models.SaveResultRequest{
		UserID:        userID,
		ImageURL:      imageURL,
		ExtractedText: text,
		FileName:      fileName,
	})
}

// ExtractFromFile uploads the image to the asset store first, then runs the
// URL path with the resolved public URL and the original file name.
func (s *ExtractionService) ExtractFromFile(ctx context.Context, content []byte, contentType, fileName, userID string) (*models.OCRResult, error) {
	publicURL, err := s.assets.Store(ctx, content, contentType, fileName, userID)
	if err != nil {
		return nil, err
	}

	return s.ExtractFromURL(ctx, publicURL, userID, &fileName)
}
