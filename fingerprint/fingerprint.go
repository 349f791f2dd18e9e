package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Input bundles the stable parts of a prompt prefix that participate in the
// fingerprint. The variable payload sent for remote caching is intentionally
// excluded: callers own the contract that it is derived from these fields.
type Input struct {
	// Model is the target model identifier. Required.
	Model string
	// SystemInstruction is the system prompt text, if any. Compared
	// byte-exact: differing whitespace yields a different fingerprint.
	SystemInstruction string
	// Tools holds tool/function schemas as free-form field maps. Input order
	// does not affect the fingerprint.
	Tools []map[string]any
	// StaticDocs holds static reference documents. Input order does not
	// affect the fingerprint.
	StaticDocs []string
}

// Compute derives a stable SHA-256 fingerprint for in. It is a pure function:
// identical logical inputs always produce the same hex digest, and permuting
// Tools or StaticDocs does not change the result. Absent optional sections
// contribute nothing, so presence and absence hash differently.
func Compute(in Input) string {
	segments := [][]byte{[]byte(in.Model)}

	if in.SystemInstruction != "" {
		segments = append(segments, []byte("system:"+in.SystemInstruction))
	}

	if len(in.Tools) > 0 {
		normalized := make([]string, 0, len(in.Tools))
		for _, tool := range in.Tools {
			normalized = append(normalized, canonicalJSON(tool))
		}
		// Sort the canonical per-tool strings so tool order is irrelevant.
		sort.Strings(normalized)
		joined, _ := json.Marshal(normalized)
		segments = append(segments, append([]byte("tools:"), joined...))
	}

	if len(in.StaticDocs) > 0 {
		docs := append([]string(nil), in.StaticDocs...)
		sort.Strings(docs)
		joined, _ := json.Marshal(docs)
		segments = append(segments, append([]byte("docs:"), joined...))
	}

	h := sha256.New()
	var lenBuf [8]byte
	for _, seg := range segments {
		// Length-prefix each segment so no delimiter byte inside a segment
		// can make two distinct inputs collide.
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(seg)))
		h.Write(lenBuf[:])
		h.Write(seg)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortID returns a short prefix of a fingerprint suitable for display names
// and log fields. Not load-bearing for identity.
func ShortID(fp string) string {
	if len(fp) <= 8 {
		return fp
	}
	return fp[:8]
}

// canonicalJSON serializes a schema map with lexicographically sorted keys at
// every nesting level, which encoding/json guarantees for maps.
func canonicalJSON(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		// Schema maps built from decoded JSON/YAML never fail to re-encode;
		// fall back to the error text so the segment stays deterministic.
		return "!" + err.Error()
	}
	return string(b)
}
