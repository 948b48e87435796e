package readiness

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Document names
const (
	DocVerificationLetter       = "verificationLetter"
	DocArticlesOfIncorporation  = "articlesOfIncorporation"
	DocBylaws                   = "bylaws"
	DocConflictOfInterestPolicy = "conflictOfInterestPolicy"
	DocFinancialStatements      = "financialStatements"
	DocAnnualBudget             = "annualBudget"
	DocBoardRoster              = "boardRoster"
)

// OptionalDocuments deepen verification but gate nothing.
var OptionalDocuments = []string{
	DocBylaws, DocConflictOfInterestPolicy, DocFinancialStatements, DocAnnualBudget, DocBoardRoster,
}

// Profile is the organization profile document, reduced to what readiness looks at.
type Profile struct {
	Name            string `json:"name"`
	Mission         string `json:"mission"`
	EIN             string `json:"ein"`
	Address         string `json:"address"`
	Website         string `json:"website"`
	Phone           string `json:"phone"`
	ContactEmail    string `json:"contactEmail"`
	FormationStatus string `json:"formationStatus"`
	// Documents holds the names of the uploaded documents.
	Documents map[string]bool `json:"documents"`
}

func (p Profile) fields() []string {
	return []string{p.Name, p.Mission, p.EIN, p.Address, p.Website, p.Phone, p.ContactEmail}
}

func (p Profile) filledFields() (filled, total int) {
	fields := p.fields()
	for _, f := range fields {
		if hasText(f) {
			filled++
		}
	}
	return filled, len(fields)
}

func (p Profile) HasDocument(name string) bool {
	return p.Documents[name]
}

// ParseProfile reads a stored profile document. It never fails: the profile is free-form JSON edited
// by many versions of the app, so unknown shapes simply leave fields empty.
// Keys are accepted in camelCase or snake_case. Scalars are read as text, so a numeric phone or EIN counts.
func ParseProfile(raw []byte) Profile {
	var p Profile
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return p
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return p
	}

	p.Name = text(doc, "name")
	p.Mission = text(doc, "mission")
	p.EIN = text(doc, "ein")
	p.Address = text(doc, "address")
	p.Website = text(doc, "website")
	p.Phone = text(doc, "phone")
	p.ContactEmail = text(doc, "contactEmail", "contact_email")
	p.FormationStatus = strings.ToLower(strings.TrimSpace(text(doc, "formationStatus", "formation_status")))

	docs := lookup(doc, "documents")
	p.Documents = make(map[string]bool)
	for _, name := range append([]string{DocVerificationLetter, DocArticlesOfIncorporation}, OptionalDocuments...) {
		if uploaded(lookup(docs, name, snakeCase(name))) {
			p.Documents[name] = true
		}
	}
	return p
}

func lookup(doc gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := doc.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func text(doc gjson.Result, keys ...string) string {
	r := lookup(doc, append(keys, snakeCase(keys[0]))...)
	switch r.Type {
	case gjson.String, gjson.Number:
		return r.String()
	default:
		return ""
	}
}

// uploaded reports whether a document entry points at a file: a non-blank string (the file URL),
// `true`, an object carrying a url/path, or a non-empty list of those.
func uploaded(r gjson.Result) bool {
	switch {
	case r.Type == gjson.String:
		return hasText(r.Str)
	case r.Type == gjson.True:
		return true
	case r.IsObject():
		for _, k := range []string{"url", "path", "fileUrl", "file_url", "key"} {
			if v := r.Get(k); v.Type == gjson.String && hasText(v.Str) {
				return true
			}
		}
		return r.Get("uploaded").Type == gjson.True
	case r.IsArray():
		found := false
		r.ForEach(func(_, v gjson.Result) bool {
			found = uploaded(v)
			return !found
		})
		return found
	default:
		return false
	}
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
