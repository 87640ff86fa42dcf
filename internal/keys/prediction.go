package keys

import (
	"fmt"
	"strings"

	"houseprice/internal/models"
)

// sanitizeKey replaces spaces with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

// Prediction returns the canonical S3 key for an archived prediction event,
// partitioned by UTC day.
func Prediction(e models.PredictionEvent) string {
	t := e.CreatedAt.UTC()
	return fmt.Sprintf("predictions/%04d/%02d/%02d/%s.json",
		t.Year(), int(t.Month()), t.Day(),
		sanitizeKey(e.ID),
	)
}

// Model returns the object key for a named model artifact version.
func Model(name, version, format string) string {
	ext := "json"
	if format == "onnx" {
		ext = "onnx"
	}
	return fmt.Sprintf("models/%s/%s.%s", sanitizeKey(name), sanitizeKey(version), ext)
}
