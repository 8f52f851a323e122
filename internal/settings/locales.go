package settings

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AvailableLanguages resolves configured locale codes to their self-names.
// Codes that do not parse as BCP 47 tags are skipped.
func AvailableLanguages(codes []string) []Language {
	out := make([]Language, 0, len(codes))
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		name := display.Self.Name(tag)
		if name == "" {
			name = code
		}
		out = append(out, Language{Code: code, Name: name})
	}
	return out
}

func languageCodes(langs []Language) []interface{} {
	codes := make([]interface{}, len(langs))
	for i, l := range langs {
		codes[i] = l.Code
	}
	return codes
}
