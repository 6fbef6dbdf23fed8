package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Bundle is the raw content of an artifact before decoding
type Bundle struct {
	// Location identifies where the bundle came from, for logs
	Location string
	Manifest []byte
	files    map[string][]byte
	readFile func(name string) ([]byte, error)
}

// NewBundle builds an in-memory bundle
func NewBundle(location string, manifest []byte, files map[string][]byte) *Bundle {
	return &Bundle{Location: location, Manifest: manifest, files: files}
}

// ReadFile returns the named component file
func (b *Bundle) ReadFile(name string) ([]byte, error) {
	if err := validateFileName(name); err != nil {
		return nil, err
	}
	if b.readFile != nil {
		return b.readFile(name)
	}
	data, ok := b.files[name]
	if !ok {
		return nil, fmt.Errorf("file %s not present in %s", name, b.Location)
	}
	return data, nil
}

// Source fetches artifact bundles
type Source interface {
	Fetch(ctx context.Context, name string) (*Bundle, error)
	String() string
}

// DirSource reads an artifact from a directory holding manifest.hcl and the
// files it references
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) String() string {
	return "dir:" + s.Dir
}

// Fetch returns ErrArtifactNotFound when the directory or its manifest is
// missing. Component files are read lazily.
func (s *DirSource) Fetch(ctx context.Context, name string) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(s.Dir, ManifestFileName)
	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, manifestPath)
		}
		return nil, fmt.Errorf("failed to read %s: %w", manifestPath, err)
	}

	return &Bundle{
		Location: s.Dir,
		Manifest: manifest,
		readFile: func(file string) ([]byte, error) {
			data, err := os.ReadFile(filepath.Join(s.Dir, file))
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", file, err)
			}
			return data, nil
		},
	}, nil
}

// validateFileName keeps manifest references inside the artifact location
func validateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("empty file name")
	}
	cleaned := filepath.Clean(name)
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("invalid file name (path traversal detected): %s", name)
	}
	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid file name (absolute path not allowed): %s", name)
	}
	return nil
}
