package validation

import (
	"mime"
	"strings"

	apperrors "go-body-analyzer/internal/errors"
)

// RejectedContentTypeMessage is the client-facing message for unsupported uploads
const RejectedContentTypeMessage = "Please upload a JPG or PNG image."

// acceptedImageTypes lists the upload media types the analyzer decodes.
// image/jpg is not registered but browsers and clients send it.
var acceptedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

// NormalizeContentType lowercases the media type and drops parameters. It
// labels events and history and plays no part in validation. Unparseable
// values are returned trimmed and lowercased.
func NormalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// ValidateImageContentType returns a rejected-input error unless contentType
// is exactly one of the accepted media types. Parameters, padding and case
// variants are rejected.
func ValidateImageContentType(contentType string) error {
	if _, ok := acceptedImageTypes[contentType]; !ok {
		return apperrors.NewRejectedInputError(RejectedContentTypeMessage, contentType)
	}
	return nil
}
