package warehouse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirScriptSource_Load(t *testing.T) {
	t.Run("success - script text returned verbatim", func(t *testing.T) {
		// arrange
		dir := t.TempDir()
		assert.NoError(t, os.MkdirAll(filepath.Join(dir, "gold"), 0o755))
		content := "CREATE OR REPLACE VIEW gold.dim_customers AS SELECT 1;\n"
		assert.NoError(t, os.WriteFile(
			filepath.Join(dir, "gold", "ddl_gold.sql"), []byte(content), 0o644,
		))
		source := NewDirScriptSource(dir)

		// act
		script, err := source.Load("gold/ddl_gold.sql")

		// assert
		assert.NoError(t, err)
		assert.Equal(t, content, script)
	})
	t.Run("failure - missing script", func(t *testing.T) {
		// arrange
		source := NewDirScriptSource(t.TempDir())

		// act
		script, err := source.Load("gold/missing.sql")

		// assert
		assert.Error(t, err)
		assert.Empty(t, script)
	})
	t.Run("failure - path escaping the scripts directory", func(t *testing.T) {
		// arrange
		source := NewDirScriptSource(t.TempDir())

		// act
		_, err := source.Load("../outside.sql")

		// assert
		assert.ErrorContains(t, err, "outside the scripts directory")
	})
	t.Run("failure - absolute path rejected", func(t *testing.T) {
		source := NewDirScriptSource(t.TempDir())
		_, err := source.Load("/etc/passwd")
		assert.ErrorContains(t, err, "outside the scripts directory")
	})
}
