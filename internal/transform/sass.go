package transform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
)

// StyleCompiler compiles one stylesheet entry point to CSS.
type StyleCompiler interface {
	Compile(ctx context.Context, entry string) ([]byte, error)
}

// SassCLI runs the sass command line compiler. Output carries an embedded
// source map so a later prefix pass can chain it.
type SassCLI struct {
	Binary       string
	IncludePaths []string
	OutputStyle  string
}

// NewSassCLI returns a compiler invoking binary (default "sass").
func NewSassCLI(binary string, includePaths []string, outputStyle string) *SassCLI {
	if binary == "" {
		binary = "sass"
	}
	return &SassCLI{Binary: binary, IncludePaths: includePaths, OutputStyle: outputStyle}
}

func (s *SassCLI) args(entry string) []string {
	args := []string{"--no-error-css", "--embed-source-map", "--embed-sources"}
	if s.OutputStyle != "" {
		args = append(args, "--style="+s.OutputStyle)
	}
	for _, p := range s.IncludePaths {
		args = append(args, "--load-path="+p)
	}
	return append(args, entry)
}

// Compile runs the compiler on entry and returns the CSS it printed.
func (s *SassCLI) Compile(ctx context.Context, entry string) ([]byte, error) {
	// #nosec G204 -- binary comes from the project configuration
	cmd := exec.CommandContext(ctx, s.Binary, s.args(entry)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.CompileError(fmt.Sprintf("compile %s: %s", entry, msg)).
			WithCause(err).
			WithContext("file", entry).
			Build()
	}
	return stdout.Bytes(), nil
}
