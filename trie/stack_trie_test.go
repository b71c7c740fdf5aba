package trie

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ethvm/ethvm/core/types"
)

func TestStackTrieEmptyRoot(t *testing.T) {
	st := NewStackTrie()
	if got := st.Hash(); got != types.EmptyRootHash {
		t.Fatalf("empty trie root = %s, want %s", got, types.EmptyRootHash)
	}
}

func TestStackTrieRejectsOutOfOrder(t *testing.T) {
	st := NewStackTrie()
	if err := st.Update([]byte("dog"), []byte("puppy")); err != nil {
		t.Fatal(err)
	}
	if err := st.Update([]byte("abc"), []byte("def")); err != ErrKeyOrder {
		t.Fatalf("expected ErrKeyOrder, got %v", err)
	}
	// Duplicate keys are out of order too.
	if err := st.Update([]byte("dog"), []byte("again")); err != ErrKeyOrder {
		t.Fatalf("expected ErrKeyOrder for duplicate key, got %v", err)
	}
}

func TestStackTrieFinalized(t *testing.T) {
	st := NewStackTrie()
	if err := st.Update([]byte("a"), []byte("1")); err != nil {
		t.Fatal(err)
	}
	_ = st.Hash()
	if err := st.Update([]byte("b"), []byte("2")); err != ErrFinalized {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
}

func TestStackTrieSkipsEmptyValues(t *testing.T) {
	st := NewStackTrie()
	if err := st.Update([]byte("a"), nil); err != nil {
		t.Fatalf("empty value should be skipped, got %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("entries = %d, want 0", st.Len())
	}
	if got := st.Hash(); got != EmptyRoot {
		t.Fatalf("root = %s, want empty root", got)
	}
}

func TestStackTrieDeterministic(t *testing.T) {
	build := func() types.Hash {
		st := NewStackTrie()
		keys := []string{"abc", "abcdef", "do", "doe", "dog", "doge", "horse"}
		vals := []string{"def", "ghij", "verb", "reindeer", "puppy", "coin", "stallion"}
		for i, k := range keys {
			if err := st.Update([]byte(k), []byte(vals[i])); err != nil {
				t.Fatalf("Update(%q): %v", k, err)
			}
		}
		return st.Hash()
	}
	if build() != build() {
		t.Fatal("same inputs should produce the same root")
	}
}

func TestStackTrieRootSensitivity(t *testing.T) {
	build := func(val string) types.Hash {
		st := NewStackTrie()
		if err := st.Update([]byte("key"), []byte(val)); err != nil {
			t.Fatal(err)
		}
		return st.Hash()
	}
	if build("a") == build("b") {
		t.Fatal("different values should produce different roots")
	}

	single := NewStackTrie()
	if err := single.Update([]byte("key"), []byte("a")); err != nil {
		t.Fatal(err)
	}
	if single.Hash() == EmptyRoot {
		t.Fatal("non-empty trie should not hash to the empty root")
	}
}

func TestStackTrieManyEntries(t *testing.T) {
	st := NewStackTrie()
	for i := 0; i < 256; i++ {
		key := []byte{byte(i)}
		val := []byte(fmt.Sprintf("value-%d", i))
		if err := st.Update(key, val); err != nil {
			t.Fatalf("Update(%x): %v", key, err)
		}
	}
	if st.Len() != 256 {
		t.Fatalf("entries = %d, want 256", st.Len())
	}
	if st.Hash() == EmptyRoot {
		t.Fatal("root should not be the empty root")
	}
}

func TestHexToCompact(t *testing.T) {
	cases := []struct {
		nibbles []byte
		want    []byte
	}{
		// Even extension: flag byte 0x00.
		{[]byte{0x01, 0x02}, []byte{0x00, 0x12}},
		// Odd extension: flag 0x1 plus first nibble.
		{[]byte{0x01, 0x02, 0x03}, []byte{0x11, 0x23}},
		// Even leaf (terminator): flag byte 0x20.
		{[]byte{0x01, 0x02, terminatorNibble}, []byte{0x20, 0x12}},
		// Odd leaf: flag 0x3 plus first nibble.
		{[]byte{0x0f, 0x01, 0x0c, 0x0b, 0x08, terminatorNibble}, []byte{0x3f, 0x1c, 0xb8}},
	}
	for _, tc := range cases {
		if got := hexToCompact(tc.nibbles); !bytes.Equal(got, tc.want) {
			t.Errorf("hexToCompact(%x) = %x, want %x", tc.nibbles, got, tc.want)
		}
	}
}

func TestKeybytesToHex(t *testing.T) {
	got := keybytesToHex([]byte{0x12, 0xab})
	want := []byte{0x1, 0x2, 0xa, 0xb, terminatorNibble}
	if !bytes.Equal(got, want) {
		t.Fatalf("keybytesToHex = %x, want %x", got, want)
	}
}

func TestRLPStringEncoding(t *testing.T) {
	cases := []struct {
		in   []byte
		want byte // first byte of encoding
	}{
		{nil, 0x80},
		{[]byte{}, 0x80},
		{[]byte{0x01}, 0x01},
		{[]byte{0x80}, 0x81},
		{[]byte("hello"), 0x85},
	}
	for _, tc := range cases {
		if got := rlpString(tc.in); got[0] != tc.want {
			t.Errorf("rlpString(%x) first byte = 0x%02x, want 0x%02x", tc.in, got[0], tc.want)
		}
	}
	long := rlpString(make([]byte, 56))
	if long[0] != 0xb8 || long[1] != 56 {
		t.Errorf("long string header = %x %x, want b8 38", long[0], long[1])
	}
}

func TestBytesLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"a", "b", true},
		{"b", "a", false},
		{"a", "a", false},
		{"a", "ab", true},
		{"ab", "a", false},
	}
	for _, tc := range cases {
		if got := bytesLess([]byte(tc.a), []byte(tc.b)); got != tc.want {
			t.Errorf("bytesLess(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
