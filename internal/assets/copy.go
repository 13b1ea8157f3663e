package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
	"git.home.luguber.info/inful/patternpipe/internal/transform"
)

// CopyTask copies the files under SourceRoot matching Include (and none of
// Exclude) into DestRoot, preserving relative paths unless Flatten is set.
//
// Files are processed in lexical order of their relative path. With Flatten
// every file lands at DestRoot/<base name>, so when two files share a base
// name the later one wins.
type CopyTask struct {
	TaskName   string
	SourceRoot string
	Include    string
	Exclude    []string
	DestRoot   string
	Flatten    bool
	// Transform rewrites each file's content before it is written.
	Transform transform.ScriptTransformer
	// Stream sends a style reload after at least one file was written.
	Stream   bool
	Notifier reload.Notifier
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// CopyStats summarizes one run.
type CopyStats struct {
	Copied int
	Failed int
}

func (c *CopyTask) Name() string { return c.TaskName }

func (c *CopyTask) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *CopyTask) recorder() metrics.Recorder {
	if c.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return c.Recorder
}

// Run copies every matching file. Per-file failures are logged and skipped;
// only an unreadable SourceRoot fails the task.
func (c *CopyTask) Run(ctx context.Context) error {
	_, err := c.Copy(ctx)
	return err
}

// Copy runs the task and reports what it did.
func (c *CopyTask) Copy(_ context.Context) (CopyStats, error) {
	var stats CopyStats
	log := c.logger().With(logfields.Task(c.TaskName))

	if err := checkSourceRoot(c.SourceRoot); err != nil {
		return stats, errors.WrapError(err, errors.CategorySourceUnavailable, fmt.Sprintf("%s: source directory unreadable", c.TaskName)).
			WithContext("path", c.SourceRoot).
			Build()
	}

	files, err := matchFiles(c.SourceRoot, c.Include, c.Exclude, log)
	if err != nil {
		return stats, errors.WrapError(err, errors.CategorySourceUnavailable, fmt.Sprintf("%s: list source files", c.TaskName)).
			WithContext("path", c.SourceRoot).
			Build()
	}

	for _, rel := range files {
		if err := c.copyFile(rel); err != nil {
			stats.Failed++
			c.recorder().IncFileResult(c.TaskName, metrics.FileFailed)
			log.Warn("Skipping file", logfields.File(rel), logfields.Error(err))
			continue
		}
		stats.Copied++
		if c.Transform != nil {
			c.recorder().IncFileResult(c.TaskName, metrics.FileTransformed)
		} else {
			c.recorder().IncFileResult(c.TaskName, metrics.FileCopied)
		}
	}

	log.Debug("Copy finished",
		slog.Int("copied", stats.Copied),
		slog.Int("failed", stats.Failed),
		logfields.Path(c.DestRoot))

	if c.Stream && stats.Copied > 0 && c.Notifier != nil {
		c.Notifier.Notify(reload.ModeStyle)
	}
	return stats, nil
}

func (c *CopyTask) destination(rel string) string {
	if c.Flatten {
		return filepath.Join(filepath.FromSlash(c.DestRoot), path.Base(rel))
	}
	return filepath.Join(filepath.FromSlash(c.DestRoot), filepath.FromSlash(rel))
}

func (c *CopyTask) copyFile(rel string) error {
	src := filepath.Join(filepath.FromSlash(c.SourceRoot), filepath.FromSlash(rel))
	info, err := os.Stat(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "stat source").WithContext("file", rel).Build()
	}
	// #nosec G304 -- path comes from walking the configured source root
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "read source").WithContext("file", rel).Build()
	}
	if c.Transform != nil {
		data, err = c.Transform.Transform(rel, data)
		if err != nil {
			return err
		}
	}
	return writeFile(c.destination(rel), data, info.Mode().Perm())
}

// checkSourceRoot reports an error unless root is a readable directory.
func checkSourceRoot(root string) error {
	info, err := os.Stat(filepath.FromSlash(root))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	f, err := os.Open(filepath.FromSlash(root))
	if err != nil {
		return err
	}
	return f.Close()
}

// matchFiles walks root from the static prefix of include and returns
// slash-separated relative paths in lexical order. Dotfiles and dot
// directories are skipped; unreadable subdirectories are logged and skipped.
func matchFiles(root, include string, exclude []string, log *slog.Logger) ([]string, error) {
	if !strings.ContainsAny(include, "*?[{\\") {
		info, err := os.Stat(filepath.Join(filepath.FromSlash(root), filepath.FromSlash(include)))
		if err != nil || !info.Mode().IsRegular() || matchesAny(exclude, include) {
			return nil, nil
		}
		return []string{include}, nil
	}

	base, _ := doublestar.SplitPattern(include)
	start := filepath.FromSlash(root)
	if base != "." {
		start = filepath.Join(start, filepath.FromSlash(base))
	}
	if _, err := os.Stat(start); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == start {
				return err
			}
			log.Warn("Skipping unreadable path", logfields.Path(filepath.ToSlash(p)), logfields.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p != start && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filepath.FromSlash(root), p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matches(include, rel) && !matchesAny(exclude, rel) {
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

func matches(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if matches(p, rel) {
			return true
		}
	}
	return false
}

func writeFile(dest string, data []byte, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create destination directory").
			WithContext("path", filepath.Dir(dest)).
			Build()
	}
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(dest, data, perm); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write destination").
			WithContext("path", dest).
			Build()
	}
	return nil
}
