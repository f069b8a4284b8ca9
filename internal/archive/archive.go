package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"horse.fit/camtranslate/internal/globaltime"
	"horse.fit/camtranslate/internal/language"
)

// ErrInvalidRecord is returned when a record has nothing to store.
var ErrInvalidRecord = errors.New("invalid translation record")

const (
	recordPrefix     = "traducciones_"
	recordTimeLayout = "20060102_150405"
	recordExt        = ".txt"
	maxNameAttempts  = 5
)

// Record is one finished translation as written to disk.
type Record struct {
	LanguageName   string
	OriginalText   string
	TranslatedText string
	TargetName     string
}

// Render produces the on-disk text of the record.
func (r Record) Render() string {
	var b strings.Builder
	b.WriteString("IDIOMA ORIGINAL: ")
	b.WriteString(r.LanguageName)
	b.WriteString("\nTEXTO ORIGINAL:\n")
	b.WriteString(r.OriginalText)
	b.WriteString("\n\nTEXTO TRADUCIDO (")
	b.WriteString(r.TargetName)
	b.WriteString("):\n")
	b.WriteString(r.TranslatedText)
	b.WriteString("\n")
	return b.String()
}

// Archiver writes translation records into a directory. Records are never overwritten.
type Archiver struct {
	fs         afero.Fs
	dir        string
	targetLang string
}

func New(fs afero.Fs, dir, targetLang string) *Archiver {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &Archiver{fs: fs, dir: dir, targetLang: language.NormalizeCode(targetLang)}
}

// Dir is the directory records are written to.
func (a *Archiver) Dir() string {
	return a.dir
}

// Archive stores one record and returns the file name it was written under. sourceLang
// is resolved to its Spanish display name.
func (a *Archiver) Archive(original, translated, sourceLang string) (string, error) {
	if strings.TrimSpace(original) == "" || strings.TrimSpace(translated) == "" {
		return "", ErrInvalidRecord
	}

	record := Record{
		LanguageName:   language.Name(sourceLang),
		OriginalText:   original,
		TranslatedText: translated,
		TargetName:     language.Name(a.targetLang),
	}
	return a.Write(record)
}

// Write stores a prepared record.
func (a *Archiver) Write(record Record) (string, error) {
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create record dir: %w", err)
	}

	base := recordPrefix + globaltime.Now().Format(recordTimeLayout)
	name := base + recordExt
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if attempt > 0 {
			name = base + "_" + uuid.NewString()[:8] + recordExt
		}

		file, err := a.fs.OpenFile(filepath.Join(a.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create record %s: %w", name, err)
		}

		if _, err := file.WriteString(record.Render()); err != nil {
			_ = file.Close()
			_ = a.fs.Remove(filepath.Join(a.dir, name))
			return "", fmt.Errorf("write record %s: %w", name, err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("close record %s: %w", name, err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free record name for %s after %d attempts", base, maxNameAttempts)
}
