package archive

import (
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horse.fit/camtranslate/internal/globaltime"
)

func TestArchiveWritesLabelledRecord(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 5, 4, 13, 7, 9, 0, time.Local))
	t.Cleanup(globaltime.ResetTime)

	fs := afero.NewMemMapFs()
	archiver := New(fs, "records", "es")

	name, err := archiver.Archive("Hello world", "Hola mundo", "en")
	require.NoError(t, err)
	assert.Equal(t, "traducciones_20260504_130709.txt", name)

	content, err := afero.ReadFile(fs, filepath.Join("records", name))
	require.NoError(t, err)
	assert.Equal(t,
		"IDIOMA ORIGINAL: Inglés\nTEXTO ORIGINAL:\nHello world\n\nTEXTO TRADUCIDO (Español):\nHola mundo\n",
		string(content))
}

func TestArchiveNeverOverwrites(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 5, 4, 13, 7, 9, 0, time.Local))
	t.Cleanup(globaltime.ResetTime)

	fs := afero.NewMemMapFs()
	archiver := New(fs, ".", "es")

	first, err := archiver.Archive("one", "uno", "en")
	require.NoError(t, err)
	second, err := archiver.Archive("two", "dos", "en")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^traducciones_20260504_130709_[0-9a-f]{8}\.txt$`), second)

	content, err := afero.ReadFile(fs, first)
	require.NoError(t, err)
	assert.Contains(t, string(content), "uno")
}

func TestArchiveUnknownLanguage(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	name, err := New(fs, ".", "es").Archive("???", "???", "")
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	assert.Contains(t, string(content), "IDIOMA ORIGINAL: Desconocido\n")
}

func TestArchiveRejectsEmptyText(t *testing.T) {
	t.Parallel()

	archiver := New(afero.NewMemMapFs(), ".", "es")
	_, err := archiver.Archive("  ", "hola", "en")
	require.ErrorIs(t, err, ErrInvalidRecord)
	_, err = archiver.Archive("hello", "", "en")
	require.ErrorIs(t, err, ErrInvalidRecord)
}

func TestArchiveReadOnlyFs(t *testing.T) {
	t.Parallel()

	archiver := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), ".", "es")
	_, err := archiver.Archive("hello", "hola", "en")
	require.Error(t, err)
}
