package assets

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
)

func TestCopyTask_PreservesRelativeStructure(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"logo.png":          "png",
		"icons/arrow.svg":   "svg",
		"icons/deep/x.gif":  "gif",
		"README":            "no extension",
		".hidden/skip.png":  "hidden",
		"icons/.DS_Store.x": "dotfile",
	})

	c := &CopyTask{TaskName: TaskImages, SourceRoot: slash(src), Include: "**/*.*", DestRoot: slash(dst)}
	stats, err := c.Copy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Copied)
	assert.Equal(t, "png", readFile(t, filepath.Join(dst, "logo.png")))
	assert.Equal(t, "svg", readFile(t, filepath.Join(dst, "icons", "arrow.svg")))
	assert.Equal(t, "gif", readFile(t, filepath.Join(dst, "icons", "deep", "x.gif")))
	assert.NoFileExists(t, filepath.Join(dst, "README"))
	assert.NoDirExists(t, filepath.Join(dst, ".hidden"))
}

func TestCopyTask_TopLevelPatternOnly(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"style.css":          "top",
		"nested/other.css":   "nested",
		"maps/style.css.map": "{}",
	})

	c := &CopyTask{TaskName: TaskCSS, SourceRoot: slash(src), Include: "*.css", DestRoot: slash(dst)}
	require.NoError(t, c.Run(context.Background()))

	assert.FileExists(t, filepath.Join(dst, "style.css"))
	assert.NoFileExists(t, filepath.Join(dst, "nested", "other.css"))
	assert.NoDirExists(t, filepath.Join(dst, "maps"))
}

func TestCopyTask_ExcludePatterns(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"index.html":           "<html>",
		"styleguide/css/a.css": "css",
		"styleguide/js/a.js":   "js",
	})

	c := &CopyTask{TaskName: TaskStyleguide, SourceRoot: slash(src), Include: "**/*", Exclude: []string{"**/*.css"}, DestRoot: slash(dst)}
	require.NoError(t, c.Run(context.Background()))

	assert.FileExists(t, filepath.Join(dst, "index.html"))
	assert.FileExists(t, filepath.Join(dst, "styleguide", "js", "a.js"))
	assert.NoFileExists(t, filepath.Join(dst, "styleguide", "css", "a.css"))
}

func TestCopyTask_FlattenLastWriterWins(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"a/styleguide.css": "first",
		"b/styleguide.css": "second",
		"b/other.css":      "other",
	})

	c := &CopyTask{TaskName: TaskStyleguideCSS, SourceRoot: slash(src), Include: "**/*.css", DestRoot: slash(dst), Flatten: true}
	stats, err := c.Copy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Copied)
	assert.Equal(t, "second", readFile(t, filepath.Join(dst, "styleguide.css")))
	assert.Equal(t, "other", readFile(t, filepath.Join(dst, "other.css")))
	assert.NoDirExists(t, filepath.Join(dst, "a"))
}

func TestCopyTask_TransformFailureSkipsOnlyThatFile(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"a.js":        "var a",
		"b.js":        "syntax error",
		"vendor/c.js": "var c",
		"notes.txt":   "ignored",
	})

	c := &CopyTask{TaskName: TaskJS, SourceRoot: slash(src), Include: "**/*.js", DestRoot: slash(dst), Transform: upperScript{}}
	stats, err := c.Copy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CopyStats{Copied: 2, Failed: 1}, stats)
	assert.Equal(t, "VAR A", readFile(t, filepath.Join(dst, "a.js")))
	assert.Equal(t, "VAR C", readFile(t, filepath.Join(dst, "vendor", "c.js")))
	assert.NoFileExists(t, filepath.Join(dst, "b.js"))
	assert.NoFileExists(t, filepath.Join(dst, "notes.txt"))
}

func TestCopyTask_UnreadableFileIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("file permissions not enforced")
	}
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"a.woff": "a", "b.woff": "b"})
	require.NoError(t, os.Chmod(filepath.Join(src, "a.woff"), 0))

	c := &CopyTask{TaskName: TaskFonts, SourceRoot: slash(src), Include: "**/*", DestRoot: slash(dst)}
	stats, err := c.Copy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CopyStats{Copied: 1, Failed: 1}, stats)
	assert.FileExists(t, filepath.Join(dst, "b.woff"))
}

func TestCopyTask_MissingSourceIsSourceUnavailable(t *testing.T) {
	c := &CopyTask{TaskName: TaskJS, SourceRoot: slash(filepath.Join(t.TempDir(), "missing")), Include: "**/*.js", DestRoot: slash(t.TempDir())}

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategorySourceUnavailable))
}

func TestCopyTask_LiteralPattern(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"favicon.ico": "ico", "_patterns/a.mustache": "x"})

	c := &CopyTask{TaskName: TaskFavicon, SourceRoot: slash(src), Include: "favicon.ico", DestRoot: slash(dst)}
	stats, err := c.Copy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Copied)
	assert.Equal(t, "ico", readFile(t, filepath.Join(dst, "favicon.ico")))
	assert.NoDirExists(t, filepath.Join(dst, "_patterns"))

	// No favicon is not an error.
	c.SourceRoot = slash(t.TempDir())
	stats, err = c.Copy(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Copied)
}

func TestCopyTask_StreamNotifiesStyleReload(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"style.css": "body{}"})
	n := &recordingNotifier{}

	c := &CopyTask{TaskName: TaskCSS, SourceRoot: slash(src), Include: "*.css", DestRoot: slash(dst), Stream: true, Notifier: n}
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []reload.Mode{reload.ModeStyle}, n.Modes())

	// Nothing copied, nothing sent.
	c.SourceRoot = slash(t.TempDir())
	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, n.Modes(), 1)
}

func TestCopyTask_NoStreamNoNotify(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"a.png": "png"})
	n := &recordingNotifier{}

	c := &CopyTask{TaskName: TaskImages, SourceRoot: slash(src), Include: "**/*.*", DestRoot: slash(dst), Notifier: n}
	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, n.Modes())
}
