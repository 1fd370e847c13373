package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"gopkg.in/yaml.v3"
)

// DefaultName is the manifest file looked up when none is configured.
const DefaultName = "depend.json"

// AssetsDir is the folder holding assets in every project, origin or local.
const AssetsDir = "Assets"

var ErrNotFound = errors.New("manifest not found")

// Format is the encoding of a manifest file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the format from the file extension. Anything that is not
// .yml or .yaml is read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Project is one origin project declared in the manifest.
type Project struct {
	Path    string   `yaml:"path" json:"path"`
	Assets  []string `yaml:"assets" json:"assets"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Manifest lists the origin projects the local project depends on.
type Manifest struct {
	Projects []Project `yaml:"projects" json:"projects"`

	// Path is the file the manifest was loaded from.
	Path string `yaml:"-" json:"-"`
	// Root is the local project root, the directory holding the manifest.
	Root string `yaml:"-" json:"-"`
}

// Find looks for a file called name in start and then in each of its
// ancestors, returning the first match. It returns ErrNotFound when the
// filesystem root is reached without a match.
func Find(start, name string) (string, error) {
	if name == "" {
		name = DefaultName
	}

	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %q in %s or its parents", ErrNotFound, name, start)
		}
		dir = parent
	}
}

// Discover finds the manifest called name from start upward and loads it.
// An absolute name is loaded directly.
func Discover(start, name string) (*Manifest, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return nil, err
		}
		return Load(name)
	}

	path, err := Find(start, name)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load reads and validates the manifest at path. JSON and YAML are both
// accepted; unknown keys are rejected.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	m, err := Parse(data, FormatOf(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}

	m.Path = abs
	m.Root = filepath.Dir(abs)
	if err := m.resolve(); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return m, nil
}

// Parse decodes and validates manifest data without resolving paths.
func Parse(data []byte, format Format) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("manifest is empty")
	}

	var m Manifest
	if err := decode(data, format, &m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the declared projects and asset names.
func (m *Manifest) Validate() error {
	if m.Projects == nil {
		return errors.New("manifest has no projects key")
	}

	for i, p := range m.Projects {
		if strings.TrimSpace(p.Path) == "" {
			return fmt.Errorf("project %d: path is required", i)
		}
		for _, name := range p.Assets {
			if err := validateAssetName(name); err != nil {
				return fmt.Errorf("project %s: %w", p.Path, err)
			}
		}
	}
	return nil
}

func decode(data []byte, format Format, m *Manifest) error {
	if format == FormatYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(m)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(m)
}

func validateAssetName(name string) error {
	if name == "" {
		return errors.New("asset name is empty")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("asset %q must be relative to %s", name, AssetsDir)
	}

	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("asset %q escapes %s", name, AssetsDir)
	}
	return nil
}

func (m *Manifest) resolve() error {
	for i := range m.Projects {
		p, err := resolvePath(m.Root, m.Projects[i].Path)
		if err != nil {
			return fmt.Errorf("project %s: %w", m.Projects[i].Path, err)
		}
		m.Projects[i].Path = p
	}
	return nil
}

// resolvePath expands a leading ~ and anchors relative paths at base.
func resolvePath(base, path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("failed to retrieve home directory")
		}
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path), nil
}

// LocalAssets is the Assets folder of the local project.
func (m *Manifest) LocalAssets() string {
	return filepath.Join(m.Root, AssetsDir)
}

// Pairs expands every declared asset into an origin/local pair, in
// declaration order.
func (m *Manifest) Pairs() []asset.Pair {
	var pairs []asset.Pair
	local := m.LocalAssets()

	for _, p := range m.Projects {
		origin := filepath.Join(p.Path, AssetsDir)
		for _, name := range p.Assets {
			rel := filepath.Clean(filepath.FromSlash(name))
			pairs = append(pairs, asset.Pair{
				Project:  p.Path,
				Name:     name,
				Origin:   filepath.Join(origin, rel),
				Local:    filepath.Join(local, rel),
				Excludes: p.Exclude,
			})
		}
	}
	return pairs
}
