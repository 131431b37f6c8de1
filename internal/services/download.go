package services

// defaultAttachmentName is used when the caller supplies no name.
const defaultAttachmentName = "extracted-text"

// TextAttachment is extracted text materialized as a downloadable .txt file.
type TextAttachment struct {
	FileName string
	Content  []byte
}

// NewTextAttachment builds a "{name}.txt" attachment holding the given text.
func NewTextAttachment(text, suggestedName string) *TextAttachment {
	if suggestedName == "" {
		suggestedName = defaultAttachmentName
	}
	return &TextAttachment{
		FileName: suggestedName + ".txt",
		Content:  []byte(text),
	}
}
