package llm

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Veraticus/sortwise/internal/common"
)

// DefaultImageMIME is assumed when the caller does not know the image type.
const DefaultImageMIME = "image/jpeg"

// EncodeImageDataURL frames raw image bytes as a base64 data URL.
func EncodeImageDataURL(data []byte, mime string) string {
	if mime == "" {
		mime = DefaultImageMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodedBase64Size returns the byte length the base64 payload decodes to.
// A data URL prefix is ignored and padding characters are accounted for.
func DecodedBase64Size(encoded string) int {
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return 0
	}

	padding := 0
	for i := len(encoded) - 1; i >= 0 && padding < 2 && encoded[i] == '='; i-- {
		padding++
	}

	size := len(encoded)*3/4 - padding
	if size < 0 {
		return 0
	}
	return size
}

// ValidateImage rejects an encoded image over maxBytes before it is sent.
// A non-positive maxBytes disables the check.
func ValidateImage(encoded string, maxBytes int) error {
	if strings.TrimSpace(encoded) == "" {
		return common.NewValidationError("image", "a photo is required for a photo scan")
	}
	if maxBytes <= 0 {
		return nil
	}
	if size := DecodedBase64Size(encoded); size > maxBytes {
		return common.NewValidationError("image",
			fmt.Sprintf("photo is %d bytes, the limit is %d bytes; retake it at a lower resolution", size, maxBytes))
	}
	return nil
}
