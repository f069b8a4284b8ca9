package langdetect

import "testing"

func TestDetectISO6391(t *testing.T) {
	t.Parallel()

	detector := New([]string{"en", "es", "fr", "de", "it", "pt"})

	if got := detector.DetectISO6391("Hello world, this is a test of the reading camera"); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
	if got := detector.DetectISO6391("Hola mundo, esta es una prueba de la cámara lectora"); got != "es" {
		t.Fatalf("expected es, got %q", got)
	}
}

func TestDetectISO6391ShortSigns(t *testing.T) {
	t.Parallel()

	detector := New([]string{"en", "es"})

	if got := detector.DetectISO6391("Hello world"); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
	if got := detector.DetectISO6391("Salida de emergencia"); got != "es" {
		t.Fatalf("expected es, got %q", got)
	}
}

func TestDetectISO6391AllLanguages(t *testing.T) {
	t.Parallel()

	detector := New(nil)
	if detector.languages != nil {
		t.Fatalf("expected unrestricted detector, got %v", detector.languages)
	}
	if got := detector.DetectISO6391("The quick brown fox jumps over the lazy dog near the river bank"); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
}

func TestDetectISO6391SkipsShortSamples(t *testing.T) {
	t.Parallel()

	detector := New([]string{"en", "es"})

	if got := detector.DetectISO6391("   "); got != "" {
		t.Fatalf("expected empty code for blank text, got %q", got)
	}
	if got := detector.DetectISO6391("ok 123 !!"); got != "" {
		t.Fatalf("expected empty code for short sample, got %q", got)
	}
}

func TestNewIgnoresUnknownCodes(t *testing.T) {
	t.Parallel()

	detector := New([]string{"en", "xx", ""})
	if detector.languages != nil {
		t.Fatalf("expected fallback to all languages, got %v", detector.languages)
	}

	detector = New([]string{"EN", " fr ", "en"})
	if len(detector.languages) != 2 {
		t.Fatalf("expected two languages, got %v", detector.languages)
	}
}
