// Package fileio opens and creates the flat files this tool works with,
// handling gzip, xz and bzip2 compression transparently. The compression
// scheme is guessed from the file extension unless an explicit override
// is given.
package fileio

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
)

// Compression override values accepted by OpenWith and CreateWith.
const (
	CompressionAuto = ""
	CompressionNone = "none"
	CompressionGzip = "gz"
	CompressionXz   = "xz"
	CompressionBz2  = "bz2"
)

type reader struct {
	io.Reader
	closers []io.Closer
}

func (r *reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type writer struct {
	io.Writer
	closers []io.Closer
}

func (w *writer) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, decompressing according to its extension.
func Open(path string) (io.ReadCloser, error) {
	return OpenWith(path, CompressionAuto)
}

// OpenWith opens path for reading with an explicit compression override.
// An empty override guesses from the file extension.
func OpenWith(path, compression string) (io.ReadCloser, error) {
	scheme, err := resolveScheme(path, compression)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("opening %s", path), err)
	}

	switch scheme {
	case CompressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, apperrors.FormatError(fmt.Sprintf("reading gzip header of %s", path), err)
		}
		return &reader{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case CompressionXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, apperrors.FormatError(fmt.Sprintf("reading xz header of %s", path), err)
		}
		return &reader{Reader: xr, closers: []io.Closer{f}}, nil
	case CompressionBz2:
		return &reader{Reader: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// Create creates path for writing, compressing according to its extension.
// Writing bzip2 is not supported.
func Create(path string) (io.WriteCloser, error) {
	return CreateWith(path, CompressionAuto)
}

// CreateWith creates path for writing with an explicit compression override.
func CreateWith(path, compression string) (io.WriteCloser, error) {
	scheme, err := resolveScheme(path, compression)
	if err != nil {
		return nil, err
	}
	if scheme == CompressionBz2 {
		return nil, apperrors.UsageError("bzip2 output is not supported, use gz or xz")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, apperrors.IOError(fmt.Sprintf("creating %s", path), err)
	}

	switch scheme {
	case CompressionGzip:
		zw := gzip.NewWriter(f)
		return &writer{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case CompressionXz:
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, apperrors.IOError(fmt.Sprintf("starting xz stream for %s", path), err)
		}
		return &writer{Writer: xw, closers: []io.Closer{xw, f}}, nil
	default:
		return f, nil
	}
}

// Ext returns the file name suffix for a compression override, e.g. ".gz"
// for gz and the empty string for none.
func Ext(compression string) (string, error) {
	switch compression {
	case CompressionAuto, CompressionNone:
		return "", nil
	case CompressionGzip:
		return ".gz", nil
	case CompressionXz:
		return ".xz", nil
	case CompressionBz2:
		return "", apperrors.UsageError("bzip2 output is not supported, use gz or xz")
	default:
		return "", apperrors.UsageError(fmt.Sprintf("unknown compression %q", compression))
	}
}

// StripCompression removes a trailing compression extension from path, if
// any, so the underlying format extension can be inspected.
func StripCompression(path string) string {
	for _, ext := range []string{".gz", ".xz", ".bz2"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

func resolveScheme(path, compression string) (string, error) {
	switch compression {
	case CompressionAuto:
		switch {
		case strings.HasSuffix(path, ".gz"):
			return CompressionGzip, nil
		case strings.HasSuffix(path, ".xz"):
			return CompressionXz, nil
		case strings.HasSuffix(path, ".bz2"):
			return CompressionBz2, nil
		default:
			return CompressionNone, nil
		}
	case CompressionNone, CompressionGzip, CompressionXz, CompressionBz2:
		return compression, nil
	default:
		return "", apperrors.UsageError(fmt.Sprintf("unknown compression %q", compression))
	}
}
