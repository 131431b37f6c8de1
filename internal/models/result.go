package models

import (
	"time"
)

// OCRResult is one persisted extraction: the image that was recognized,
// the text that came back, and who owns it. ID and CreatedAt are assigned
// by the database and only exist on persisted rows.
type OCRResult struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ImageURL      string    `json:"image_url"`
	ExtractedText string    `json:"extracted_text"`
	FileName      *string   `json:"file_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaveResultRequest carries the caller-supplied fields of a new result.
type SaveResultRequest struct {
	UserID        string
	ImageURL      string
	ExtractedText string
	FileName      *string
}

// ExtractURLRequest is the request body for extracting text from an image URL
type ExtractURLRequest struct {
	ImageURL string  `json:"image_url"`
	FileName *string `json:"file_name,omitempty"`
}
