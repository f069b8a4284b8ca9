package language

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// UnknownName is returned for codes the catalog cannot resolve.
const UnknownName = "Desconocido"

var catalogNames = map[string]string{
	"en": "Inglés",
	"es": "Español",
	"fr": "Francés",
	"de": "Alemán",
	"it": "Italiano",
	"pt": "Portugués",
}

// Name resolves a language code to its Spanish display name. The static table wins;
// other well-formed codes fall back to CLDR names, anything else is UnknownName.
func Name(code string) string {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return UnknownName
	}
	if name, ok := catalogNames[normalized]; ok {
		return name
	}

	tag, err := xlanguage.Parse(normalized)
	if err != nil {
		return UnknownName
	}
	name := strings.TrimSpace(display.Spanish.Languages().Name(tag))
	if name == "" {
		return UnknownName
	}
	// Casers keep state, so each lookup gets its own.
	return cases.Title(xlanguage.Spanish).String(name)
}

// Known reports whether code is in the static catalog.
func Known(code string) bool {
	_, ok := catalogNames[NormalizeCode(code)]
	return ok
}

// Entry is one catalog row.
type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Entries lists the static catalog sorted by code.
func Entries() []Entry {
	entries := make([]Entry, 0, len(catalogNames))
	for code, name := range catalogNames {
		entries = append(entries, Entry{Code: code, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Code < entries[j].Code
	})
	return entries
}
