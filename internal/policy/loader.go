package policy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPoliciesDir is the policy directory inside the data directory.
const DefaultPoliciesDir = "policies"

// PolicyFile represents a loaded Rego policy file.
type PolicyFile struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Loader reads .rego policy files from a directory.
type Loader struct {
	fs      afero.Fs
	baseDir string
}

// NewLoader creates a policy loader reading baseDir from fs.
func NewLoader(fs afero.Fs, baseDir string) *Loader {
	return &Loader{
		fs:      fs,
		baseDir: baseDir,
	}
}

// LoadAll loads every .rego file under the base directory, recursively,
// sorted by name. A missing directory yields no policies; a file that does
// not compile fails the load.
func (l *Loader) LoadAll() ([]*PolicyFile, error) {
	exists, err := afero.DirExists(l.fs, l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("check policies directory: %w", err)
	}
	if !exists {
		return []*PolicyFile{}, nil
	}

	var policies []*PolicyFile

	err = afero.Walk(l.fs, l.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || !strings.HasSuffix(info.Name(), ".rego") {
			return nil
		}

		policy, err := l.loadFile(path)
		if err != nil {
			return fmt.Errorf("load policy %s: %w", path, err)
		}
		if err := ValidatePolicy(policy.Content); err != nil {
			return fmt.Errorf("policy %s: %w", policy.Name, err)
		}

		policies = append(policies, policy)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk policies directory: %w", err)
	}

	sort.Slice(policies, func(i, j int) bool { return policies[i].Name < policies[j].Name })
	return policies, nil
}

// loadFile reads a policy file and returns its content.
func (l *Loader) loadFile(path string) (*PolicyFile, error) {
	file, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".rego")

	return &PolicyFile{
		Path:    path,
		Name:    name,
		Content: string(content),
	}, nil
}

// PoliciesPath returns the policy directory for a data directory.
func PoliciesPath(dataDir string) string {
	return filepath.Join(dataDir, DefaultPoliciesDir)
}
