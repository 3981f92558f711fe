package api

import (
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders the model's answers for clients that display rich text.
// GFM covers the tables and strikethrough models like to emit.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown converts text to HTML, returning empty on failure so
// clients fall back to the plain text.
func renderMarkdown(text string, logger *slog.Logger) string {
	var sb strings.Builder
	if err := md.Convert([]byte(text), &sb); err != nil {
		logger.Debug("markdown render failed", "error", err)
		return ""
	}
	return sb.String()
}
