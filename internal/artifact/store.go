package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"horse.fit/camtranslate/internal/globaltime"
)

const (
	namePrefix      = "esp32_capture_"
	nameExt         = ".jpg"
	maxNameAttempts = 1000
)

// Artifact is one received upload persisted on disk until cleanup.
type Artifact struct {
	Name        string
	Path        string
	Size        int64
	ClientIP    string
	ContentType string
	CreatedAt   time.Time
}

// Store writes upload artifacts into a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) *Store {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &Store{fs: fs, dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Save persists data as esp32_capture_<unix>.jpg. An existing file with that name is
// never replaced; a numeric suffix is added instead.
func (s *Store) Save(data []byte, clientIP string) (Artifact, error) {
	if len(data) == 0 {
		return Artifact{}, fmt.Errorf("artifact is empty")
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create upload dir: %w", err)
	}

	now := globaltime.Now()
	base := namePrefix + strconv.FormatInt(now.Unix(), 10)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := base + nameExt
		if attempt > 0 {
			name = base + "_" + strconv.Itoa(attempt) + nameExt
		}
		path := filepath.Join(s.dir, name)

		file, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return Artifact{}, fmt.Errorf("create artifact %s: %w", name, err)
		}

		if _, err := file.Write(data); err != nil {
			_ = file.Close()
			_ = s.fs.Remove(path)
			return Artifact{}, fmt.Errorf("write artifact %s: %w", name, err)
		}
		if err := file.Close(); err != nil {
			_ = s.fs.Remove(path)
			return Artifact{}, fmt.Errorf("close artifact %s: %w", name, err)
		}

		return Artifact{
			Name:        name,
			Path:        path,
			Size:        int64(len(data)),
			ClientIP:    clientIP,
			ContentType: mimetype.Detect(data).String(),
			CreatedAt:   now,
		}, nil
	}
	return Artifact{}, fmt.Errorf("no free artifact name for %s after %d attempts", base, maxNameAttempts)
}

// Remove deletes an artifact right away. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact %s: %w", path, err)
	}
	return nil
}
