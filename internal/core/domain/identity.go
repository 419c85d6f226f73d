package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ConversionID is the hex encoded SHA-256 identity of an InputDescriptor.
type ConversionID string

const (
	labelSeparator = "\x00"
	// noGroupLabel stands in for an absent group label. Present labels are
	// length prefixed and always start with a digit.
	noGroupLabel = "-"
)

// Derive computes the conversion identity of a descriptor.
func Derive(d InputDescriptor) ConversionID {
	label := noGroupLabel
	if d.GroupLabel != "" {
		label = strconv.Itoa(len(d.GroupLabel)) + ":" + d.GroupLabel
	}

	sum := sha256.Sum256([]byte(label + labelSeparator + d.SourceFileID))
	return ConversionID(hex.EncodeToString(sum[:]))
}

// Short returns a prefix of the id suitable for file names and log lines.
func (id ConversionID) Short() string {
	if len(id) < 16 {
		return string(id)
	}
	return string(id[:16])
}
