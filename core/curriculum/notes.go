package curriculum

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ParseNotes extracts the text of a saved notes payload.
// Older rows store the notes as a plain string (JSON-encoded or raw text), newer ones as
// `{"content": "..."}`. Any other JSON shape yields "".
func ParseNotes(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if !gjson.ValidBytes(raw) {
		return string(raw)
	}

	doc := gjson.ParseBytes(raw)
	switch {
	case doc.Type == gjson.String:
		return doc.Str
	case doc.IsObject():
		if content := doc.Get("content"); content.Type == gjson.String {
			return content.Str
		}
	}
	return ""
}

func hasNotes(notes string) bool {
	return strings.TrimSpace(notes) != ""
}
