package locator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/playq/internal/vars"
)

// FileNamespace resolves JSON-sourced resource-locator references. Each
// file <dir>/<file>.json holds a page -> field -> selector map. The file is
// read on every lookup so locator edits take effect without a restart.
type FileNamespace struct {
	dir   string
	store *vars.Store
}

// NewFileNamespace creates a namespace over a locator directory.
func NewFileNamespace(dir string, store *vars.Store) *FileNamespace {
	return &FileNamespace{dir: dir, store: store}
}

// Lookup returns the selector for [file][page][field] with variable
// substitution applied. found is false when the file, page or field does
// not exist; err reports a malformed file.
func (n *FileNamespace) Lookup(file, page, field string) (selector string, found bool, err error) {
	path := filepath.Join(n.dir, file+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read locator file %s: %w", path, err)
	}

	pages := make(map[string]map[string]string)
	if err := json.Unmarshal(data, &pages); err != nil {
		return "", false, fmt.Errorf("malformed locator file %s: %w", path, err)
	}

	fields, ok := pages[page]
	if !ok {
		return "", false, nil
	}
	raw, ok := fields[field]
	if !ok {
		return "", false, nil
	}

	if n.store != nil {
		raw = n.store.ReplaceVariables(raw)
	}
	return raw, true, nil
}
