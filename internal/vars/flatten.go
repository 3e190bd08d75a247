package vars

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Flatten converts a nested tree into a flat dotted-key map. Maps nest by
// key, slices by index. Leaves are stringified: booleans as true/false,
// integral floats without a decimal point.
func Flatten(tree map[string]any, prefix string) map[string]string {
	out := make(map[string]string)
	flattenInto(out, tree, prefix)
	return out
}

func flattenInto(out map[string]string, node any, prefix string) {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			flattenInto(out, child, joinKey(prefix, k))
		}
	case []any:
		for i, child := range v {
			flattenInto(out, child, joinKey(prefix, strconv.Itoa(i)))
		}
	default:
		if prefix != "" {
			out[prefix] = stringify(v)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// LoadFileEntries loads a JSON or TOML file, optionally selects a named
// top-level export, flattens it into dotted keys under prefix and returns
// the entries. Unlike the layered initialization loaders this fails hard:
// callers depend on the result being present and well-formed.
func LoadFileEntries(path, exportName, prefix string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var tree map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported file extension %q for %s", ext, path)
	}

	if exportName != "" {
		selected, found := tree[exportName]
		if !found {
			return nil, fmt.Errorf("export %q not found in %s", exportName, path)
		}
		subtree, ok := selected.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("export %q in %s is not an object", exportName, path)
		}
		tree = subtree
	}

	return Flatten(tree, prefix), nil
}

// MergeEntries assigns pre-flattened entries into the store, overwriting
// existing keys.
func (s *Store) MergeEntries(entries map[string]string) {
	s.merge(entries, true)
}
