package types

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Bloom represents the 2048-bit log bloom filter of a block or receipt.
type Bloom [BloomLength]byte

// BloomBitLength is the number of bits in a bloom filter.
const BloomBitLength = 8 * BloomLength

// bloom9 computes the 3 bit positions for a bloom filter entry. It takes the
// first 6 bytes of keccak256(data), splits them into 3 big-endian uint16
// pairs and reduces each mod 2048.
func bloom9(data []byte) [3]uint {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	h := d.Sum(nil)
	var bits [3]uint
	for i := 0; i < 3; i++ {
		bits[i] = uint(binary.BigEndian.Uint16(h[2*i:])) & 0x7FF
	}
	return bits
}

// Add sets the 3 bloom bits derived from data.
func (b *Bloom) Add(data []byte) {
	for _, bit := range bloom9(data) {
		// Big-endian bit ordering: bit 0 is the LSB of the last byte.
		b[BloomLength-1-bit/8] |= 1 << (bit % 8)
	}
}

// Or merges other into b. OR-ing bloom filters is associative and
// commutative, so per-transaction blooms can be folded in any order.
func (b *Bloom) Or(other Bloom) {
	for i := range b {
		b[i] |= other[i]
	}
}

// Contains reports whether all 3 bits derived from data are set. False
// positives are possible, false negatives are not.
func (b Bloom) Contains(data []byte) bool {
	for _, bit := range bloom9(data) {
		if b[BloomLength-1-bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// Bytes returns the byte representation of the bloom filter.
func (b Bloom) Bytes() []byte { return b[:] }

// IsZero reports whether no bit of the filter is set.
func (b Bloom) IsZero() bool { return b == Bloom{} }

// LogsBloom computes the combined bloom filter for a set of logs. For each
// log the address and every topic contribute their bits.
func LogsBloom(logs []*Log) Bloom {
	var bloom Bloom
	for _, log := range logs {
		bloom.Add(log.Address.Bytes())
		for _, topic := range log.Topics {
			bloom.Add(topic.Bytes())
		}
	}
	return bloom
}

// CreateBloom folds the blooms of a list of receipts into one block bloom.
func CreateBloom(receipts []*Receipt) Bloom {
	var bloom Bloom
	for _, receipt := range receipts {
		if receipt == nil {
			continue
		}
		bloom.Or(receipt.Bloom)
	}
	return bloom
}
