package vault

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Constants of the Relic Chunky container signature.
const (
	chunkyName         = "Relic Chunky"
	chunkySignature    = 0x1A0A0D
	chunkyMajorVersion = 4
	chunkyMinorVersion = 1
)

// Chunky is the signature that precedes each top level chunk section.
//
// A replay holds exactly two of them. Only one container version is known,
// anything else is rejected.
type Chunky struct {
	Name         string `json:"name"`
	Signature    uint32 `json:"signature"`
	MajorVersion uint32 `json:"majorVersion"`
	MinorVersion uint32 `json:"minorVersion"`
}

func parseChunky(r *reader) (Chunky, error) {
	c := Chunky{}
	start := r.offset()

	name, err := r.take(len(chunkyName))
	if err != nil {
		return c, wrap("chunky name", start, err)
	}
	if !bytes.Equal(name, []byte(chunkyName)) {
		return c, &ParseError{Op: "chunky name", Offset: start, Err: fmt.Errorf("%w: got %q", ErrMalformed, name)}
	}
	c.Name = chunkyName

	if c.Signature, err = r.verifyU32(chunkySignature); err != nil {
		return c, wrap("chunky signature", start, err)
	}
	if c.MajorVersion, err = r.verifyU32(chunkyMajorVersion); err != nil {
		return c, versionError("chunky major version", err)
	}
	if c.MinorVersion, err = r.verifyU32(chunkyMinorVersion); err != nil {
		return c, versionError("chunky minor version", err)
	}

	log.Debug().Int("offset", start).Msg("chunky")

	return c, nil
}

// versionError marks a failed container version gate as both malformed and unsupported.
func versionError(op string, err error) error {
	pe, ok := err.(*ParseError)
	if !ok || !errors.Is(pe.Err, ErrMalformed) {
		return err
	}
	return &ParseError{
		Op:     op,
		Offset: pe.Offset,
		Err:    fmt.Errorf("%w: %w", ErrUnsupportedVersion, pe.Err),
	}
}
