// Package trie implements the Merkle-Patricia trie commitments used by the
// block processor: a streaming StackTrie for ordered key-value sets and the
// receipt trie built on top of it.
package trie

// Hex-prefix (HP) encoding per the Yellow Paper, Appendix C. Nibble keys use
// values 0x0-0xf plus a terminator nibble (0x10) marking leaf keys.

const terminatorNibble = 16

// keybytesToHex converts a raw byte key to a nibble sequence with a trailing
// terminator nibble.
func keybytesToHex(key []byte) []byte {
	nibbles := make([]byte, len(key)*2+1)
	for i, b := range key {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	nibbles[len(nibbles)-1] = terminatorNibble
	return nibbles
}

// hexToCompact converts a nibble sequence (with optional terminator) into
// compact hex-prefix form. The high nibble of the first byte carries a leaf
// flag (0x20) and an odd-length flag (0x10); odd keys store their first
// nibble in the low half of that byte.
func hexToCompact(hex []byte) []byte {
	terminator := byte(0)
	if hasTerminator(hex) {
		terminator = 1
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = terminator << 5
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4
		buf[0] |= hex[0]
		hex = hex[1:]
	}
	for bi, ni := 1, 0; ni < len(hex); bi, ni = bi+1, ni+2 {
		buf[bi] = hex[ni]<<4 | hex[ni+1]
	}
	return buf
}

// hasTerminator reports whether the nibble sequence ends with the terminator.
func hasTerminator(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminatorNibble
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// bytesLess reports whether a sorts strictly before b lexicographically.
func bytesLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
