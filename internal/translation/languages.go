package translation

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"horse.fit/camtranslate/internal/language"
)

// SupportedLanguageCodes lists the codes the language catalog can name.
func SupportedLanguageCodes() []string {
	entries := language.Entries()
	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		codes = append(codes, entry.Code)
	}
	return codes
}

// englishLanguageName returns the CLDR English name of code, "" when unknown.
func englishLanguageName(code string) string {
	normalized := normalizeLangCode(code)
	if normalized == "" {
		return ""
	}
	tag, err := xlanguage.Parse(normalized)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(display.English.Languages().Name(tag))
}

func normalizeLangCode(raw string) string {
	return language.NormalizeCode(raw)
}
