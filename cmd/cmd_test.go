package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/browserify/uglifyify/pkg/options"
	"github.com/browserify/uglifyify/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetArgs(nil)
	})
	err := RootCmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)
}

func TestMinifyOptionsLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ignore: vendor/**\ncompress:\n  drop_console: true\n"), 0o644))

	ignoreFile := filepath.Join(t.TempDir(), ".uglifyifyignore")
	require.NoError(t, os.WriteFile(ignoreFile, []byte("# build output\nbuild/\n"), 0o644))

	v.Set("config", path)
	v.Set("ignore-file", ignoreFile)
	v.Set("ignore", []string{"dist/**"})
	v.Set("exts", []string{"mjs"})
	v.Set("debug", true)
	t.Cleanup(func() {
		for _, k := range []string{"config", "ignore-file", "ignore", "exts", "debug"} {
			v.Set(k, nil)
		}
	})

	opts, err := minifyOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "**/build/**", "dist/**"}, opts.Strings(options.KeyIgnore))
	assert.Equal(t, []string{".mjs"}, opts.Extensions())
	assert.True(t, opts.Debug())
	compress, ok := opts.Map(options.KeyCompress)
	require.True(t, ok)
	assert.Equal(t, true, compress["drop_console"])
}

func TestMinifyStdin(t *testing.T) {
	out, err := execute(t, "var x = 1;", "minify", "--no-source-map", "--engine", "esbuild")
	require.NoError(t, err)
	assert.Equal(t, "var x=1;", out)
}

func TestMinifyOutDir(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.js"), []byte("function f(a) { return a + 1; }\nf(1);\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "data.json"), []byte(`{"a": 1}`), 0o644))

	_, err := execute(t, "", "minify", src, "--out-dir", dst, "--workers", "2", "--no-source-map=false")
	require.NoError(t, err)

	js, err := os.ReadFile(filepath.Join(dst, "app.js"))
	require.NoError(t, err)
	assert.Contains(t, string(js), "//# sourceMappingURL=data:application/json;charset=utf-8;base64,")

	data, err := os.ReadFile(filepath.Join(dst, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, string(data))
}
