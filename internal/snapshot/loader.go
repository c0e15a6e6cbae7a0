package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Supported snapshot file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Loader reads snapshot files from a filesystem. Use afero.NewMemMapFs()
// in tests.
type Loader struct {
	fs  afero.Fs
	now func() time.Time
}

// NewLoader creates a loader over fs. A nil fs means the OS filesystem.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs, now: time.Now}
}

// WithClock overrides the clock used to default CurrentTime.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// Load reads and decodes the snapshot at path.
func (l *Loader) Load(path string) (*Context, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	snap, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	snap.Normalize(l.now())
	return snap, nil
}

// FormatFromPath maps a file extension to a snapshot format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported snapshot format %q (use .json, .yaml or .toml)", filepath.Ext(path))
	}
}

// Decode parses snapshot bytes. YAML and TOML are converted to JSON first so
// one set of struct tags describes every format.
func Decode(data []byte, format string) (*Context, error) {
	var jsonData []byte
	switch format {
	case FormatJSON:
		jsonData = data
	case FormatYAML:
		var generic map[string]any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		b, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		jsonData = b
	case FormatTOML:
		var generic map[string]any
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&generic); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		b, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("convert toml: %w", err)
		}
		jsonData = b
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}

	var snap Context
	if err := json.Unmarshal(jsonData, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}
