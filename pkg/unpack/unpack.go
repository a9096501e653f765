// Package unpack decompresses firmware artifacts. Some upstream images are
// published compressed (x86 targets ship as .img.gz, some mirrors re-pack
// as .xz); the deployment flow unpacks them before staging.
package unpack

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Known reports whether the file name carries a compression suffix this
// package can unpack.
func Known(name string) bool {
	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".xz"):
		return true
	}
	return false
}

// Bytes decompresses b; the format is selected by the compression suffix of
// name. It returns the unpacked file name (the suffix stripped) and the
// unpacked content. Names without a known suffix fail with
// ErrUnknownFormat.
func Bytes(name string, b []byte) (string, []byte, error) {
	var (
		r   io.Reader
		err error
	)
	switch {
	case strings.HasSuffix(name, ".gz"):
		var gz *gzip.Reader
		gz, err = gzip.NewReader(bytes.NewReader(b))
		if gz != nil {
			defer gz.Close()
			r = gz
		}
	case strings.HasSuffix(name, ".xz"):
		cfg := xz.ReaderConfig{SingleStream: true}
		r, err = cfg.NewReader(bytes.NewReader(b))
	default:
		return "", nil, ErrUnknownFormat{Name: name}
	}
	if err != nil {
		return "", nil, ErrUnpack{Err: err, Name: name}
	}

	unpacked, err := io.ReadAll(r)
	if err != nil {
		return "", nil, ErrUnpack{Err: err, Name: name}
	}
	return strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".xz"), unpacked, nil
}

// File unpacks the file at path into the same directory and returns the
// path of the unpacked file. Paths without a known compression suffix are
// returned unchanged.
func File(path string) (string, error) {
	name := filepath.Base(path)
	if !Known(name) {
		return path, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", ErrUnpack{Err: err, Name: name}
	}
	unpackedName, unpacked, err := Bytes(name, b)
	if err != nil {
		return "", err
	}

	unpackedPath := filepath.Join(filepath.Dir(path), unpackedName)
	if err := os.WriteFile(unpackedPath, unpacked, 0o644); err != nil {
		return "", ErrUnpack{Err: err, Name: unpackedName}
	}
	return unpackedPath, nil
}
