package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// NormalizeCode reduces a language tag or code to its primary subtag in ISO 639-1 form
// when one exists: "en-US" and Tesseract's "eng" both become "en". Blank or malformed
// input yields "".
func NormalizeCode(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	primary, _, _ := strings.Cut(strings.ReplaceAll(cleaned, "_", "-"), "-")
	if len(primary) < 2 || len(primary) > 3 || !isLowerASCII(primary) {
		return ""
	}

	base, err := xlanguage.ParseBase(primary)
	if err != nil {
		// Well-formed but unknown to CLDR. Two-letter codes still pass through so
		// providers can judge them.
		if len(primary) == 2 {
			return primary
		}
		return ""
	}
	return base.String()
}

// TesseractCode maps an ISO 639-1 code to the three-letter name Tesseract uses for its
// traineddata, "" when there is none.
func TesseractCode(code string) string {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return ""
	}
	base, err := xlanguage.ParseBase(normalized)
	if err != nil {
		return ""
	}
	return base.ISO3()
}

func isLowerASCII(value string) bool {
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
