package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_InlineVerbatim(t *testing.T) {
	doc, err := Load(Options{JSON: "not even json"})
	require.NoError(t, err)
	assert.Equal(t, "not even json", string(doc.Data))
	assert.Equal(t, "inline", doc.Origin)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.json")
	content := "{\"scenarios\": []}\n\x00trailing"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := Load(Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, content, string(doc.Data), "file read in full, bytes untouched")
	assert.Equal(t, path, doc.Origin)
}

func TestLoad_RelativeFileUsesWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.json"), []byte("{}"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	doc, err := Load(Options{File: "s.json"})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(doc.Data))
	assert.Equal(t, "s.json", doc.Origin)
}

func TestLoad_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"both", Options{File: "a.json", JSON: "{}"}, "Only one of --scenarios_file or --scenarios_json must be set"},
		{"neither", Options{}, "One of --scenarios_file or --scenarios_json must be set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Load(tt.opts)
			assert.Nil(t, doc)

			var cerr *ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.want, cerr.Error())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := Load(Options{File: path})

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, path, ioErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
