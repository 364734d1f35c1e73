package dataset

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the container an input file is wrapped in.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectCompression sniffs the leading bytes of a file.
func DetectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(header, magicZstd):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// sniff returns the compression of the file at path and its leading bytes.
func sniff(path string) (Compression, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return CompressionNone, nil, err
	}
	defer f.Close()

	header := make([]byte, 4)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return CompressionNone, nil, fmt.Errorf("%s is empty", path)
		}
		return CompressionNone, nil, err
	}
	return DetectCompression(header[:n]), header[:n], nil
}

// memFile is an in-memory api.ReadSeekerCloser holding a decompressed dataset.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// decompress reads the whole compressed file into memory.
func decompress(path string, c Compression) (memFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return memFile{}, err
	}
	defer f.Close()

	var r io.Reader
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			return memFile{}, fmt.Errorf("gzip header: %w", err)
		}
		defer zr.Close()
		r = zr
	case CompressionZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return memFile{}, fmt.Errorf("zstd header: %w", err)
		}
		defer zr.Close()
		r = zr
	default:
		return memFile{}, fmt.Errorf("no decompressor for %s", c)
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return memFile{}, fmt.Errorf("decompressing %s: %w", c, err)
	}
	return memFile{bytes.NewReader(buf)}, nil
}
