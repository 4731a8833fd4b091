package gen

import (
	"bytes"
	"io"
	"testing"
)

// TestCtx is a noop closer, which wraps an io.Writer
// and only meant to be used for tests.
//
type TestCtx struct {
	io.Writer
}

// Open returns the underlying io.Writer.
func (ctx TestCtx) Open(filename string) (io.WriteCloser, error) { return ctx, nil }

// Close always returns nil.
func (ctx TestCtx) Close() error { return nil }

// CompareBytes reports the first line at which out differs from ex.
func CompareBytes(t testing.TB, ex, out []byte) {
	t.Helper()
	if bytes.Equal(ex, out) {
		return
	}

	exLines, outLines := bytes.Split(ex, []byte{'\n'}), bytes.Split(out, []byte{'\n'})
	for i := 0; i < len(exLines) && i < len(outLines); i++ {
		if !bytes.Equal(exLines[i], outLines[i]) {
			t.Errorf("mismatch at line %d:\nexpected: %q\ngot:      %q", i+1, exLines[i], outLines[i])
			return
		}
	}
	t.Errorf("mismatched length: expected %d lines, got %d lines\nexpected:\n%s\ngot:\n%s", len(exLines), len(outLines), ex, out)
}
