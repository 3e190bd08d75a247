package vars

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
)

// DirPatternSource loads pattern files (.json/.toml) from a directory.
// Every LoadAll call reads the directory afresh - there is no caching, so
// edits to pattern files take effect at the next refresh point.
type DirPatternSource struct {
	dir    string
	logger arbor.ILogger
}

// NewDirPatternSource creates a pattern source over a directory.
func NewDirPatternSource(dir string, logger arbor.ILogger) *DirPatternSource {
	return &DirPatternSource{dir: dir, logger: logger}
}

// LoadAll returns flat entries keyed by file base name. Files that fail to
// load are logged and skipped; a missing directory is an error the store
// downgrades to a warning.
func (p *DirPatternSource) LoadAll() (map[string]map[string]string, error) {
	dirEntries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]string)
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".toml" {
			continue
		}

		entries, err := LoadFileEntries(filepath.Join(p.dir, name), "", "")
		if err != nil {
			p.logger.Warn().Err(err).Str("file", name).Msg("Failed to load pattern file - skipping")
			continue
		}
		out[strings.TrimSuffix(name, filepath.Ext(name))] = entries
	}
	return out, nil
}
