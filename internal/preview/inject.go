package preview

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultBlacklist lists request paths that never get the reload script.
// They are the pattern-library shell pages, which reload their pattern
// iframe on their own.
var DefaultBlacklist = []string{"/", "/index.html", "/?*"}

const (
	scriptTag     = `<script async src="/livereload.js"></script>`
	maxInjectSize = 512 * 1024
)

// blacklisted reports whether urlPath matches any pattern.
func blacklisted(patterns []string, urlPath string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, urlPath); err == nil && ok {
			return true
		}
	}
	return false
}

// injectReloadScript inserts the reload client into HTML pages before
// </body>, skipping blacklisted paths.
func injectReloadScript(next http.Handler, blacklist []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isHTMLPage := path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !isHTMLPage || blacklisted(blacklist, path) {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers an HTML response so the script can be inserted.
// Non-HTML responses and bodies over maxInjectSize pass through untouched.
type injector struct {
	http.ResponseWriter
	statusCode    int
	buf           bytes.Buffer
	buffering     bool
	passthrough   bool
	headerWritten bool
}

func (in *injector) WriteHeader(code int) {
	in.statusCode = code
	if in.passthrough {
		in.writeHeader()
	}
}

func (in *injector) writeHeader() {
	if in.headerWritten {
		return
	}
	in.ResponseWriter.WriteHeader(in.statusCode)
	in.headerWritten = true
}

func (in *injector) Write(data []byte) (int, error) {
	if !in.buffering && !in.passthrough {
		ct := in.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			in.passthrough = true
		} else {
			in.buffering = true
		}
	}
	if in.passthrough {
		in.writeHeader()
		return in.ResponseWriter.Write(data)
	}
	if in.buf.Len()+len(data) > maxInjectSize {
		in.passthrough = true
		in.buffering = false
		in.Header().Del("Content-Length")
		in.writeHeader()
		if _, err := in.ResponseWriter.Write(in.buf.Bytes()); err != nil {
			return 0, err
		}
		in.buf.Reset()
		return in.ResponseWriter.Write(data)
	}
	return in.buf.Write(data)
}

func (in *injector) finalize() {
	if in.passthrough || in.buf.Len() == 0 {
		in.writeHeader()
		return
	}
	body := in.buf.Bytes()
	if i := bytes.LastIndex(body, []byte("</body>")); i >= 0 {
		var out bytes.Buffer
		out.Grow(len(body) + len(scriptTag))
		out.Write(body[:i])
		out.WriteString(scriptTag)
		out.Write(body[i:])
		body = out.Bytes()
	}
	in.Header().Del("Content-Length")
	in.writeHeader()
	_, _ = in.ResponseWriter.Write(body)
}
