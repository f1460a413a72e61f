// Package replayfile loads replay bytes from disk, unwrapping zstd
// compressed files on the fly.
package replayfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/vaultcoh/vault"
)

// ErrTooLarge is returned when decompressed content exceeds the limit.
var ErrTooLarge = errors.New("decompressed replay too large")

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Read reads the file at path and returns the raw replay bytes.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, 0)
}

// Decode returns data unchanged unless it starts with the zstd magic, in
// which case it returns the decompressed content. If limit is positive,
// content larger than limit bytes fails with ErrTooLarge.
func Decode(data []byte, limit int64) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if limit > 0 {
		// Windows are at least MinWindowSize; the exact limit is enforced below.
		opts = append(opts, zstd.WithDecoderMaxMemory(uint64(max(limit, zstd.MinWindowSize))))
	}
	zr, err := zstd.NewReader(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var src io.Reader = zr
	if limit > 0 {
		src = io.LimitReader(zr, limit+1)
	}
	out, err := io.ReadAll(src)
	if errors.Is(err, zstd.ErrWindowSizeExceeded) || errors.Is(err, zstd.ErrDecoderSizeExceeded) {
		return nil, fmt.Errorf("%w: %w", ErrTooLarge, err)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	if limit > 0 && int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	log.Debug().Int("compressed", len(data)).Int("size", len(out)).Msg("unwrapped zstd replay")

	return out, nil
}

// Parse decodes the replay at path.
func Parse(path string) (*vault.Replay, error) {
	data, err := Read(path)
	if err != nil {
		return nil, err
	}
	return vault.Parse(data)
}
