package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// The first plaintext byte tells Decrypt which branch Encrypt took.
const (
	markerRaw  byte = 0x00
	markerZlib byte = 0x01
)

// maxPlaintext bounds decompression output. Payloads are a few hundred bytes.
const maxPlaintext = 64 << 10

var errPlaintextTooLarge = errors.New("decompressed payload exceeds limit")

// frame prefixes body with its branch marker. Compression is best effort: if
// it fails, or does not make the body smaller, the raw branch is used.
func frame(body []byte) []byte {
	if z, err := deflate(body); err == nil && len(z) < len(body) {
		return append([]byte{markerZlib}, z...)
	}
	return append([]byte{markerRaw}, body...)
}

func unframe(framed []byte) ([]byte, error) {
	if len(framed) == 0 {
		return nil, errors.New("empty plaintext")
	}
	switch framed[0] {
	case markerRaw:
		return framed[1:], nil
	case markerZlib:
		return inflate(framed[1:])
	default:
		return nil, fmt.Errorf("unknown body marker 0x%02x", framed[0])
	}
}

func deflate(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(z []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(z))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, maxPlaintext+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxPlaintext {
		return nil, errPlaintextTooLarge
	}
	return out, nil
}
