// Package source reads file spans for result rendering. The index stores
// byte offsets only; line and column are computed here on demand. File bytes
// are cached in a bounded in-memory cache so a burst of queries does not
// re-read the same files; no long-lived file handles are kept.
package source

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/maypok86/otter"
)

const cacheCapacity = 64 << 20 // bytes of cached source text

// Reader resolves byte offsets to lines, columns, and snippets.
type Reader struct {
	cache otter.Cache[string, []byte]
}

// NewReader creates a reader with an empty cache.
func NewReader() (*Reader, error) {
	cache, err := otter.MustBuilder[string, []byte](cacheCapacity).
		Cost(func(key string, value []byte) uint32 {
			return uint32(len(value))
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build source cache: %w", err)
	}
	return &Reader{cache: cache}, nil
}

// Bytes returns the raw content of a file, from cache when possible.
func (r *Reader) Bytes(path string) ([]byte, error) {
	if data, ok := r.cache.Get(path); ok {
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r.cache.Set(path, data)
	return data, nil
}

// LineCol converts a byte offset into a 1-based line and column. Column is
// a byte offset within the line, matching editors operating on raw bytes.
func (r *Reader) LineCol(path string, off int) (line, col int, err error) {
	data, err := r.Bytes(path)
	if err != nil {
		return 0, 0, err
	}
	if off > len(data) {
		off = len(data)
	}
	line = 1 + bytes.Count(data[:off], []byte{'\n'})
	lastNL := bytes.LastIndexByte(data[:off], '\n')
	col = off - lastNL // lastNL is -1 on the first line, giving col = off+1
	return line, col, nil
}

// LineStart returns the byte offset where a 1-based line begins.
func (r *Reader) LineStart(path string, line int) (int, error) {
	data, err := r.Bytes(path)
	if err != nil {
		return 0, err
	}
	if line <= 1 {
		return 0, nil
	}
	off := 0
	for n := 1; n < line; n++ {
		nl := bytes.IndexByte(data[off:], '\n')
		if nl < 0 {
			return len(data), nil
		}
		off += nl + 1
	}
	return off, nil
}

// LineRange returns the byte range [start, end) of a 1-based line, without
// the trailing newline.
func (r *Reader) LineRange(path string, line int) (start, end int, err error) {
	data, err := r.Bytes(path)
	if err != nil {
		return 0, 0, err
	}
	start, err = r.LineStart(path, line)
	if err != nil {
		return 0, 0, err
	}
	nl := bytes.IndexByte(data[start:], '\n')
	if nl < 0 {
		return start, len(data), nil
	}
	return start, start + nl, nil
}

// Snippet returns the full source lines covering the byte range, trimmed of
// surrounding whitespace.
func (r *Reader) Snippet(path string, startByte, endByte int) (string, error) {
	data, err := r.Bytes(path)
	if err != nil {
		return "", err
	}
	if startByte > len(data) {
		startByte = len(data)
	}
	if endByte > len(data) {
		endByte = len(data)
	}
	start := bytes.LastIndexByte(data[:startByte], '\n') + 1
	end := endByte
	if nl := bytes.IndexByte(data[endByte:], '\n'); nl >= 0 {
		end = endByte + nl
	} else {
		end = len(data)
	}
	return strings.TrimSpace(string(data[start:end])), nil
}

// Invalidate drops all cached content. Called after a reindex so queries
// against the new snapshot see current file bytes.
func (r *Reader) Invalidate() {
	r.cache.Clear()
}

// Close releases the cache.
func (r *Reader) Close() {
	r.cache.Close()
}
