package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func slash(p string) string { return filepath.ToSlash(p) }

type recordingNotifier struct {
	mu    sync.Mutex
	modes []reload.Mode
}

func (r *recordingNotifier) Notify(m reload.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, m)
}

func (r *recordingNotifier) Modes() []reload.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reload.Mode(nil), r.modes...)
}

// upperScript uppercases content and rejects files containing "syntax error".
type upperScript struct{}

func (upperScript) Transform(name string, src []byte) ([]byte, error) {
	if strings.Contains(string(src), "syntax error") {
		return nil, errors.TransformError("transpile " + name).Build()
	}
	return []byte(strings.ToUpper(string(src))), nil
}

// fakeCompiler emits "compiled(<content>)" and fails on content "broken".
type fakeCompiler struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeCompiler) Compile(_ context.Context, entry string) ([]byte, error) {
	f.mu.Lock()
	f.entries = append(f.entries, filepath.Base(entry))
	f.mu.Unlock()
	data, err := os.ReadFile(entry)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "broken" {
		return nil, errors.CompileError("compile " + entry + ": unexpected token").Build()
	}
	return []byte(fmt.Sprintf("compiled(%s)\n/*# sourceMappingURL=data:application/json;base64,e30= */\n", strings.TrimSpace(string(data)))), nil
}

type fakePrefixer struct{}

func (fakePrefixer) Prefix(name string, css []byte) ([]byte, []byte, error) {
	return append([]byte("prefixed:"), css...), []byte(`{"version":3,"file":"` + name + `"}`), nil
}
