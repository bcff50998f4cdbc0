// Package drawing implements the reversible text encoding used to store
// drawing payloads inside remote text blocks: snappy compression, base64,
// and a codec tag distinguishing the format from the legacy raw-base64 one.
package drawing

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sketchsync/internal/common"
	"github.com/golang/snappy"
)

// CodecTag prefixes every payload produced by Encode. Payloads without the
// tag are legacy uncompressed base64 and must keep decoding.
const CodecTag = "SKETCH1:"

// Encode turns raw drawing bytes into the tagged transportable form.
func Encode(raw []byte) string {
	compressed := snappy.Encode(nil, raw)
	return CodecTag + base64.StdEncoding.EncodeToString(compressed)
}

// Decode reverses Encode. Tagged input is base64-decoded and decompressed;
// untagged input is treated as legacy raw base64. Failures wrap
// common.ErrorDecoding.
func Decode(s string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(s, CodecTag); ok {
		compressed, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: base64: %v", common.ErrorDecoding, err)
		}
		raw, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", common.ErrorDecoding, err)
		}
		return raw, nil
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: legacy base64: %v", common.ErrorDecoding, err)
	}
	return raw, nil
}
