package genome

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

const wordBits = 64

var ErrMalformed = errors.New("malformed genome text")

// Genome is a fixed-length bit vector. Bit i encodes cell i of a row-major
// grid. Values are immutable: every operation returns a fresh Genome.
type Genome struct {
	n     int
	words []uint64
}

// New returns an all-zero genome of n bits.
func New(n int) Genome {
	if n < 0 {
		panic(fmt.Sprintf("genome: negative length %d", n))
	}
	return Genome{n: n, words: make([]uint64, wordCount(n))}
}

// FromBits builds a genome from explicit bit values.
func FromBits(values []bool) Genome {
	g := New(len(values))
	for i, v := range values {
		if v {
			g.words[i/wordBits] |= 1 << uint(i%wordBits)
		}
	}
	return g
}

// FromIndices builds an n-bit genome with the listed bits set.
func FromIndices(n int, indices ...int) Genome {
	g := New(n)
	for _, i := range indices {
		g.checkIndex(i)
		g.words[i/wordBits] |= 1 << uint(i%wordBits)
	}
	return g
}

func wordCount(n int) int {
	return (n + wordBits - 1) / wordBits
}

func (g Genome) Len() int { return g.n }

func (g Genome) Bit(i int) bool {
	g.checkIndex(i)
	return g.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// FlipBit returns a copy with bit i toggled.
func (g Genome) FlipBit(i int) Genome {
	g.checkIndex(i)
	out := g.clone()
	out.words[i/wordBits] ^= 1 << uint(i%wordBits)
	return out
}

func (g Genome) IsZero() bool {
	for _, w := range g.words {
		if w != 0 {
			return false
		}
	}
	return true
}

func (g Genome) PopCount() int {
	total := 0
	for _, w := range g.words {
		total += bits.OnesCount64(w)
	}
	return total
}

func (g Genome) Equal(other Genome) bool {
	if g.n != other.n {
		return false
	}
	for i := range g.words {
		if g.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

func (g Genome) And(other Genome) Genome {
	g.checkSameLen(other)
	out := g.clone()
	for i := range out.words {
		out.words[i] &= other.words[i]
	}
	return out
}

func (g Genome) Or(other Genome) Genome {
	g.checkSameLen(other)
	out := g.clone()
	for i := range out.words {
		out.words[i] |= other.words[i]
	}
	return out
}

func (g Genome) AndNot(other Genome) Genome {
	g.checkSameLen(other)
	out := g.clone()
	for i := range out.words {
		out.words[i] &^= other.words[i]
	}
	return out
}

func (g Genome) Not() Genome {
	out := g.clone()
	for i := range out.words {
		out.words[i] = ^out.words[i]
	}
	out.trim()
	return out
}

// LowMask returns an n-bit genome with the k lowest bits set.
func LowMask(n, k int) Genome {
	if k < 0 || k > n {
		panic(fmt.Sprintf("genome: mask width %d outside [0, %d]", k, n))
	}
	g := New(n)
	full := k / wordBits
	for i := 0; i < full; i++ {
		g.words[i] = ^uint64(0)
	}
	if rem := k % wordBits; rem != 0 {
		g.words[full] = (uint64(1) << uint(rem)) - 1
	}
	return g
}

// ShiftLeft moves every bit k positions towards the high end; bits shifted
// past the length are dropped.
func (g Genome) ShiftLeft(k int) Genome {
	if k < 0 {
		return g.ShiftRight(-k)
	}
	out := New(g.n)
	if k >= g.n {
		return out
	}
	wordShift, bitShift := k/wordBits, uint(k%wordBits)
	for i := len(g.words) - 1; i >= wordShift; i-- {
		v := g.words[i-wordShift] << bitShift
		if bitShift != 0 && i-wordShift-1 >= 0 {
			v |= g.words[i-wordShift-1] >> (wordBits - bitShift)
		}
		out.words[i] = v
	}
	out.trim()
	return out
}

// ShiftRight moves every bit k positions towards bit zero.
func (g Genome) ShiftRight(k int) Genome {
	if k < 0 {
		return g.ShiftLeft(-k)
	}
	out := New(g.n)
	if k >= g.n {
		return out
	}
	wordShift, bitShift := k/wordBits, uint(k%wordBits)
	last := len(g.words) - 1
	for i := 0; i+wordShift <= last; i++ {
		v := g.words[i+wordShift] >> bitShift
		if bitShift != 0 && i+wordShift+1 <= last {
			v |= g.words[i+wordShift+1] << (wordBits - bitShift)
		}
		out.words[i] = v
	}
	return out
}

// Chunk keeps bits [start, end) in place and clears every other bit.
func (g Genome) Chunk(start, end int) Genome {
	if start < 0 || end > g.n || start > end {
		panic(fmt.Sprintf("genome: chunk [%d, %d) outside length %d", start, end, g.n))
	}
	return g.And(LowMask(g.n, end).AndNot(LowMask(g.n, start)))
}

// Key is a compact map key for the genome contents.
func (g Genome) Key() string {
	var b strings.Builder
	b.Grow(len(g.words) * 8)
	var buf [8]byte
	for _, w := range g.words {
		binary.LittleEndian.PutUint64(buf[:], w)
		b.Write(buf[:])
	}
	return b.String()
}

// String renders the genome most significant bit first.
func (g Genome) String() string {
	var b strings.Builder
	b.Grow(g.n)
	for i := g.n - 1; i >= 0; i-- {
		if g.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// MarshalText encodes the genome as "<bits>:<hex words, low word first>".
func (g Genome) MarshalText() ([]byte, error) {
	raw := make([]byte, len(g.words)*8)
	for i, w := range g.words {
		binary.LittleEndian.PutUint64(raw[i*8:], w)
	}
	return []byte(strconv.Itoa(g.n) + ":" + hex.EncodeToString(raw)), nil
}

// Text is the MarshalText form as a string.
func (g Genome) Text() string {
	text, _ := g.MarshalText()
	return string(text)
}

func (g *Genome) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Parse is the inverse of MarshalText.
func Parse(text string) (Genome, error) {
	lenPart, hexPart, ok := strings.Cut(text, ":")
	if !ok {
		return Genome{}, fmt.Errorf("%w: missing length prefix", ErrMalformed)
	}
	n, err := strconv.Atoi(lenPart)
	if err != nil || n < 0 {
		return Genome{}, fmt.Errorf("%w: bad length %q", ErrMalformed, lenPart)
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil {
		return Genome{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) != wordCount(n)*8 {
		return Genome{}, fmt.Errorf("%w: %d bytes for %d bits", ErrMalformed, len(raw), n)
	}
	g := New(n)
	for i := range g.words {
		g.words[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	if !g.trimmed() {
		return Genome{}, fmt.Errorf("%w: bits set beyond length %d", ErrMalformed, n)
	}
	return g, nil
}

func (g Genome) clone() Genome {
	words := make([]uint64, len(g.words))
	copy(words, g.words)
	return Genome{n: g.n, words: words}
}

// trim clears the unused high bits of the last word.
func (g Genome) trim() {
	if rem := g.n % wordBits; rem != 0 && len(g.words) > 0 {
		g.words[len(g.words)-1] &= (uint64(1) << uint(rem)) - 1
	}
}

func (g Genome) trimmed() bool {
	if rem := g.n % wordBits; rem != 0 && len(g.words) > 0 {
		return g.words[len(g.words)-1]>>uint(rem) == 0
	}
	return true
}

func (g Genome) checkIndex(i int) {
	if i < 0 || i >= g.n {
		panic(fmt.Sprintf("genome: bit %d outside length %d", i, g.n))
	}
}

func (g Genome) checkSameLen(other Genome) {
	if g.n != other.n {
		panic(fmt.Sprintf("genome: length mismatch %d != %d", g.n, other.n))
	}
}
