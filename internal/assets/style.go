package assets

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
	"git.home.luguber.info/inful/patternpipe/internal/transform"
)

// StyleMapsDir is the subdirectory receiving compiled source maps.
const StyleMapsDir = "maps"

// ChannelStyles tags log records of the style compile error channel.
const ChannelStyles = "styles"

var sourceMappingURL = regexp.MustCompile(`(?m)\n?/\*# sourceMappingURL=[^*]*\*/\s*$|\n?//# sourceMappingURL=.*$`)

// StyleTask compiles every stylesheet entry point under SourceRoot (files
// matching **/*.scss whose name does not start with "_") and writes the
// result next to the sources: <rel>.css plus maps/<rel>.css.map.
//
// Compile and prefix failures go to ErrorLog and never fail the task.
type StyleTask struct {
	TaskName   string
	SourceRoot string
	Compiler   transform.StyleCompiler
	// Prefixer is optional; without it the compiler output is written as is.
	Prefixer transform.Prefixer
	Logger   *slog.Logger
	ErrorLog *slog.Logger
	Recorder metrics.Recorder
}

func (s *StyleTask) Name() string { return s.TaskName }

func (s *StyleTask) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *StyleTask) errorLog() *slog.Logger {
	if s.ErrorLog != nil {
		return s.ErrorLog
	}
	return s.logger().With(logfields.Channel(ChannelStyles))
}

func (s *StyleTask) recorder() metrics.Recorder {
	if s.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return s.Recorder
}

// Run compiles all entry points.
func (s *StyleTask) Run(ctx context.Context) error {
	log := s.logger().With(logfields.Task(s.TaskName))

	if err := checkSourceRoot(s.SourceRoot); err != nil {
		return errors.WrapError(err, errors.CategorySourceUnavailable, fmt.Sprintf("%s: source directory unreadable", s.TaskName)).
			WithContext("path", s.SourceRoot).
			Build()
	}
	if s.Compiler == nil {
		return errors.InternalError(fmt.Sprintf("%s: no style compiler configured", s.TaskName)).Build()
	}

	entries, err := matchFiles(s.SourceRoot, "**/*.scss", []string{"**/_*.scss"}, log)
	if err != nil {
		return errors.WrapError(err, errors.CategorySourceUnavailable, fmt.Sprintf("%s: list stylesheets", s.TaskName)).
			WithContext("path", s.SourceRoot).
			Build()
	}

	compiled := 0
	for _, rel := range entries {
		if err := s.compileEntry(ctx, rel); err != nil {
			s.recorder().IncFileResult(s.TaskName, metrics.FileFailed)
			s.errorLog().Error("Style compile failed", logfields.Task(s.TaskName), logfields.File(rel), logfields.Error(err))
			continue
		}
		compiled++
		s.recorder().IncFileResult(s.TaskName, metrics.FileTransformed)
	}
	log.Debug("Styles compiled", slog.Int("compiled", compiled), slog.Int("entries", len(entries)))
	return nil
}

func (s *StyleTask) compileEntry(ctx context.Context, rel string) error {
	root := filepath.FromSlash(s.SourceRoot)
	entry := filepath.Join(root, filepath.FromSlash(rel))
	outRel := strings.TrimSuffix(rel, path.Ext(rel)) + ".css"
	mapRel := path.Join(StyleMapsDir, outRel+".map")

	css, err := s.Compiler.Compile(ctx, entry)
	if err != nil {
		if errors.IsClassified(err) {
			return err
		}
		return errors.WrapError(err, errors.CategoryCompile, "compile "+rel).WithContext("file", rel).Build()
	}

	if s.Prefixer == nil {
		return writeFile(filepath.Join(root, filepath.FromSlash(outRel)), css, 0o644)
	}

	code, sourceMap, err := s.Prefixer.Prefix(outRel, css)
	if err != nil {
		return err
	}
	code = sourceMappingURL.ReplaceAll(code, nil)
	if len(sourceMap) > 0 {
		if err := writeFile(filepath.Join(root, filepath.FromSlash(mapRel)), sourceMap, 0o644); err != nil {
			return err
		}
		body := strings.TrimRight(string(code), "\n")
		code = []byte(body + "\n/*# sourceMappingURL=" + mapReference(outRel, mapRel) + " */\n")
	}
	return writeFile(filepath.Join(root, filepath.FromSlash(outRel)), code, 0o644)
}

// mapReference returns mapRel relative to the directory of outRel.
func mapReference(outRel, mapRel string) string {
	dir := path.Dir(outRel)
	if dir == "." {
		return mapRel
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1) + mapRel
}
