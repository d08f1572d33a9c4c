package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"

	"spvopt/internal/config"
)

// Digest is a SHA-256 cache key.
type Digest [sha256.Size]byte

// pipelineFingerprint covers every setting that can change the output or
// the diagnostics of a run.
func pipelineFingerprint(cfg config.Config) string {
	var b strings.Builder
	b.WriteString("passes=")
	b.WriteString(strings.Join(cfg.Pipeline.Passes, ","))
	b.WriteString(";lenient=")
	if cfg.Remap.Lenient {
		b.WriteString("1")
	} else {
		b.WriteString("0")
	}
	b.WriteString(";versions=")
	b.WriteString(strings.TrimSpace(cfg.Input.Versions))
	return b.String()
}

// cacheKey: H(schema || len(input) || input || fingerprint).
func cacheKey(input []byte, cfg config.Config) Digest {
	h := sha256.New()
	var hdr [10]byte
	binary.LittleEndian.PutUint16(hdr[:2], diskCacheSchemaVersion)
	binary.LittleEndian.PutUint64(hdr[2:], uint64(len(input)))
	_, _ = h.Write(hdr[:])
	_, _ = h.Write(input)
	_, _ = h.Write([]byte(pipelineFingerprint(cfg)))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
