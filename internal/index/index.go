// Package index names the artifacts of an index directory and reads and
// writes its manifest.
package index

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"dbgraph/internal/errs"
	"dbgraph/internal/jsonutil"
	"dbgraph/internal/store"
	"dbgraph/pkg/api"
)

// Artifact file names within an index directory.
const (
	SolidFile    = "solid.kmers"
	BloomFile    = "bloom.bin"
	CriticalFile = "critical.bin"
	ManifestFile = "manifest.json"
)

// WriteManifest commits m as the last artifact of dir.
func WriteManifest(dir string, m api.ManifestV1) error {
	return store.WriteFile(filepath.Join(dir, ManifestFile), func(w io.Writer) error {
		return jsonutil.EncodePretty(w, m)
	})
}

// ReadManifest loads the manifest of dir. A directory without one, or
// whose manifest names a missing artifact, is incomplete.
func ReadManifest(dir string) (api.ManifestV1, error) {
	var m api.ManifestV1
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return m, errs.New("index.ReadManifest", errs.ErrIncompleteIndex, err).With("dir", dir)
	}
	if err != nil {
		return m, err
	}
	if err := jsonutil.DecodeOne(b, &m); err != nil {
		return m, fmt.Errorf("index: %s: %w", ManifestFile, err)
	}
	if m.Version != api.ManifestVersion {
		return m, fmt.Errorf("index: manifest version %d, want %d", m.Version, api.ManifestVersion)
	}
	for _, name := range []string{m.SolidFile, m.BloomFile, m.CriticalFile} {
		if name == "" {
			return m, errs.New("index.ReadManifest", errs.ErrIncompleteIndex, nil).With("dir", dir)
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return m, errs.New("index.ReadManifest", errs.ErrIncompleteIndex, err).With("artifact", name)
		}
	}
	return m, nil
}
