package extractor

import (
	"regexp"

	"github.com/mr-tron/base58"

	"github.com/alpha-radar/pkg/config"
)

// solanaAddrRe matches the base58 alphabet (no 0, O, I, l) in the length
// window Solana pubkeys occupy when encoded.
var solanaAddrRe = regexp.MustCompile(`\b([1-9A-HJ-NP-Za-km-z]{32,44})\b`)

// Extract scans free text and returns every string that decodes to a
// well-formed 32-byte Solana public key, excluding reserved system
// addresses. Results are deduplicated and ordered by first occurrence.
// Pure: no I/O, deterministic for any input.
func Extract(text string) []string {
	matches := solanaAddrRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		if !IsValidAddress(m) {
			continue
		}
		if config.ReservedAddresses[m] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// IsValidAddress reports whether s decodes to exactly 32 bytes of base58.
// The regex alone passes plenty of english words and hashes; the decode is
// the real filter.
func IsValidAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}
