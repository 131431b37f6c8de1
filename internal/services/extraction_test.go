package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ydkdan6/ocrtext/internal/models"
)

type fakeRecognizer struct {
	text string
	err  error
	urls []string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imageURL string) (string, error) {
	f.urls = append(f.urls, imageURL)
	return f.text, f.err
}

type fakeAssetStore struct {
	url string
	err error
}

func (f *fakeAssetStore) Store(ctx context.Context, content []byte, contentType, fileName, ownerID string) (string, error) {
	return f.url, f.err
}

type fakeResultSaver struct {
	saved []*models.SaveResultRequest
	err   error
}

func (f *fakeResultSaver) SaveResult(ctx context.Context, req *models.SaveResultRequest) (*models.OCRResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, req)
	result := &models.OCRResult{
		ID:            "r1",
		UserID:        req.UserID,
		ImageURL:      req.ImageURL,
		ExtractedText: req.ExtractedText,
		FileName:      req.FileName,
		CreatedAt:     time.Now(),
	}
	return result, nil
}

func TestExtractFromURLPassesTextThroughExactly(t *testing.T) {
	saver := &fakeResultSaver{}
	svc := NewExtractionService(&fakeRecognizer{text: " Receipt total: $4.20\n"}, &fakeAssetStore{}, saver)

	result, err := svc.ExtractFromURL(context.Background(), "https://example.com/a.png", "u1", nil)
	if err != nil {
		t.Fatalf("ExtractFromURL: %v", err)
	}
	if result.ExtractedText != " Receipt total: $4.20\n" {
		t.Fatalf("ExtractedText = %q, want provider output unmodified", result.ExtractedText)
	}
	if result.UserID != "u1" || result.ImageURL != "https://example.com/a.png" {
		t.Fatalf("result metadata = %+v", result)
	}
}

func TestExtractFromURLRecognitionFailurePersistsNothing(t *testing.T) {
	saver := &fakeResultSaver{}
	svc := NewExtractionService(&fakeRecognizer{err: ErrRecognitionFailed}, &fakeAssetStore{}, saver)

	_, err := svc.ExtractFromURL(context.Background(), "https://example.com/a.png", "u1", nil)
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("error = %v, want ErrRecognitionFailed", err)
	}
	if len(saver.saved) != 0 {
		t.Fatalf("saved %d records, want none", len(saver.saved))
	}
}

func TestExtractFromURLSaveFailureSurfacesUnchanged(t *testing.T) {
	saveErr := errors.New("insert rejected")
	svc := NewExtractionService(&fakeRecognizer{text: "x"}, &fakeAssetStore{}, &fakeResultSaver{err: saveErr})

	_, err := svc.ExtractFromURL(context.Background(), "https://example.com/a.png", "u1", nil)
	if !errors.Is(err, saveErr) {
		t.Fatalf("error = %v, want the saver's error unchanged", err)
	}
}

func TestExtractFromFileThreadsPublicURLAndFileName(t *testing.T) {
	recognizer := &fakeRecognizer{text: "hello"}
	saver := &fakeResultSaver{}
	svc := NewExtractionService(recognizer, &fakeAssetStore{url: "https://store.example.com/b/u1/1.png"}, saver)

	result, err := svc.ExtractFromFile(context.Background(), []byte("img"), "image/png", "photo.png", "u1")
	if err != nil {
		t.Fatalf("ExtractFromFile: %v", err)
	}

	if len(recognizer.urls) != 1 || recognizer.urls[0] != "https://store.example.com/b/u1/1.png" {
		t.Fatalf("recognized urls = %v, want the stored public URL", recognizer.urls)
	}
	if result.FileName == nil || *result.FileName != "photo.png" {
		t.Fatalf("FileName = %v, want original name threaded through", result.FileName)
	}
}

func TestExtractFromFileStorageFailureAborts(t *testing.T) {
	recognizer := &fakeRecognizer{text: "hello"}
	svc := NewExtractionService(recognizer, &fakeAssetStore{err: ErrStorageUnavailable}, &fakeResultSaver{})

	_, err := svc.ExtractFromFile(context.Background(), []byte("img"), "image/png", "photo.png", "u1")
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("error = %v, want ErrStorageUnavailable", err)
	}
	if len(recognizer.urls) != 0 {
		t.Fatal("recognition ran despite storage failure")
	}
}
