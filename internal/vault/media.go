package vault

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

const (
	TypeAcademic = "Academic"
	TypeIdentity = "Identity"
)

// TypeLabel derives the document type label from its media type.
func TypeLabel(mimeType string) string {
	if strings.Contains(strings.ToLower(mimeType), "pdf") {
		return TypeAcademic
	}
	return TypeIdentity
}

// resolveMediaType normalizes the declared media type, sniffing the payload
// when the declaration is missing or generic.
func resolveMediaType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			declared = mt
		}
	}
	if declared == "" || declared == "application/octet-stream" {
		detected := mimetype.Detect(data).String()
		if mt, _, err := mime.ParseMediaType(detected); err == nil {
			return mt
		}
		return detected
	}
	return strings.ToLower(declared)
}

func checkMediaType(mt string) error {
	if mt == "application/pdf" || strings.HasPrefix(mt, "image/") {
		return nil
	}
	return models.Invalid("media_type", "%q is not a PDF or image", mt)
}
