// Package iohelper provides bounded readers for HTTP response bodies.
// Probe responses are only ever kept as excerpts, so every read is capped
// to protect against maliciously large responses.
package iohelper

import "io"

// Body size limits.
const (
	// ExcerptMaxBytes caps the body excerpt stored on a probe response (64KB).
	// Detector heuristics only need the leading portion of a body.
	ExcerptMaxBytes int64 = 64 * 1024

	// SmallMaxBytes is for status pages and error bodies (8KB).
	SmallMaxBytes int64 = 8 * 1024
)

// ReadExcerpt reads from r up to maxSize bytes.
// A nil reader returns an empty slice and no error.
func ReadExcerpt(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose reads any remaining data from r and closes it if it is a
// ReadCloser, so the underlying connection can be reused for keep-alive.
// Always returns nil to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
