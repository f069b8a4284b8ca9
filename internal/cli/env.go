package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar overrides the --env flag when set.
const EnvFileVar = "CAMTRANSLATE_ENV_FILE"

// ErrNoEnvFile means none of the candidate env files exist. Running without one is
// normal, everything has a default.
var ErrNoEnvFile = errors.New("no env file found")

// EnvLoader applies a .env file to the process environment before config.Load runs.
type EnvLoader struct {
	path        *string
	defaultPath string
}

// AddEnvFlag registers --env on fs.
func AddEnvFlag(fs *flag.FlagSet, defaultPath string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if strings.TrimSpace(defaultPath) == "" {
		defaultPath = ".env"
	}
	return &EnvLoader{
		path:        fs.String("env", defaultPath, "Path to the .env file (overridden by $"+EnvFileVar+")"),
		defaultPath: defaultPath,
	}
}

// Load applies the first existing file among $CAMTRANSLATE_ENV_FILE, --env and the
// default path. File values override the inherited environment. It returns the path it
// loaded, or ErrNoEnvFile.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	for _, candidate := range l.candidates() {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Overload(candidate); err != nil {
			return "", fmt.Errorf("load env file %s: %w", candidate, err)
		}
		return candidate, nil
	}
	return "", ErrNoEnvFile
}

func (l *EnvLoader) candidates() []string {
	raw := []string{os.Getenv(EnvFileVar), l.defaultPath}
	if l.path != nil {
		raw = []string{os.Getenv(EnvFileVar), *l.path, l.defaultPath}
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, candidate := range raw {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
