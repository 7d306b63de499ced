package warehouse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirScriptSource loads action script text from files under a single
// directory, e.g. scripts/gold/ddl_gold.sql. Script names are relative paths
// within that directory.
type DirScriptSource struct {
	dir string
}

func NewDirScriptSource(dir string) *DirScriptSource {
	return &DirScriptSource{dir: dir}
}

func (s *DirScriptSource) Load(name string) (string, error) {
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("script path %q is outside the scripts directory", name)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, clean))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
