package media

import (
	"fmt"
	"unicode/utf8"
)

// Validation error codes, mirrored in the HTTP error payload.
const (
	CodeRequired            = "REQUIRED"
	CodeDuplicatedInputItem = "DUPLICATED_INPUT_ITEM"
	CodeInvalid             = "INVALID"
)

// ValidationError rejects an attach request before any side effect.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AttachInput is one media attach request. Exactly one of Image, MediaURL
// or MediaURLs must be set.
type AttachInput struct {
	ProductID int64
	VariantID *int64
	Alt       string

	// Image is an uploaded file; ImageName carries its original filename.
	Image     []byte
	ImageName string

	MediaURL  string
	MediaURLs []string
}

func (in *AttachInput) validate() error {
	hasImage := len(in.Image) > 0
	hasURLs := in.MediaURL != "" || len(in.MediaURLs) > 0

	if !hasImage && !hasURLs {
		return &ValidationError{
			Code:    CodeRequired,
			Message: "Image or external URL(s) is/are required.",
		}
	}
	if hasImage && hasURLs {
		return &ValidationError{
			Code:    CodeDuplicatedInputItem,
			Message: "Either image or external URL is required.",
		}
	}
	// The limit counts characters, not bytes.
	if utf8.RuneCountInString(in.Alt) > AltCharLimit {
		return &ValidationError{
			Code:    CodeInvalid,
			Message: fmt.Sprintf("Alt field exceeds the character limit of %d.", AltCharLimit),
		}
	}
	return nil
}
