package embedding

import "strings"

// Kind selects the extraction strategy for a content type. Dispatch is by
// tag, not inheritance, so the set of strategies stays explicit.
type Kind int

// Content kinds, in dispatch order of specificity.
const (
	KindGeneric Kind = iota
	KindText
	KindPDF
	KindImage
)

// String returns the kind name for logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	default:
		return "generic"
	}
}

// textLikeTypes are non-"text/*" MIME types whose payload is still plain text.
var textLikeTypes = map[string]struct{}{
	"application/json":       {},
	"application/xml":        {},
	"application/yaml":       {},
	"application/x-yaml":     {},
	"application/javascript": {},
	"application/markdown":   {},
	"application/csv":        {},
}

// KindFor maps a normalized MIME type to its extraction strategy.
func KindFor(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "text/"):
		return KindText
	case mime == "application/pdf":
		return KindPDF
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	}
	if _, ok := textLikeTypes[mime]; ok {
		return KindText
	}
	return KindGeneric
}
