package record

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const recordVersionV1 = 1

// ErrMalformed is returned when a persisted value cannot be decoded.
// Callers treat a malformed record as absent and remove it.
var ErrMalformed = errors.New("malformed cooldown record")

// Source says who established the dispatch timestamp.
type Source byte

const (
	// SourceLocal marks a timestamp observed at the moment of a local
	// optimistic dispatch.
	SourceLocal Source = iota
	// SourceServer marks a timestamp backdated from a server-reported
	// remaining time.
	SourceServer
)

// Record is the single durable fact of the cooldown subsystem: when the
// action was (or is treated as having been) dispatched. Remaining time is
// always derived, never stored.
type Record struct {
	DispatchedAt time.Time
	Source       Source
}

// Encode renders the record as a compact string for the key/value store:
// version byte, source byte, then the unix-millisecond timestamp
// big-endian, base64url-encoded without padding.
func Encode(r Record) string {
	var buf [10]byte
	buf[0] = recordVersionV1
	buf[1] = byte(r.Source)
	binary.BigEndian.PutUint64(buf[2:], uint64(r.DispatchedAt.UnixMilli()))
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// Decode parses a value produced by Encode.
func Decode(s string) (Record, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Record{}, ErrMalformed
	}
	if len(raw) != 10 {
		return Record{}, ErrMalformed
	}
	if raw[0] != recordVersionV1 {
		return Record{}, ErrMalformed
	}
	source := Source(raw[1])
	if source > SourceServer {
		return Record{}, ErrMalformed
	}
	ms := int64(binary.BigEndian.Uint64(raw[2:]))
	return Record{
		DispatchedAt: time.UnixMilli(ms),
		Source:       source,
	}, nil
}
