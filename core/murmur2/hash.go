// Package murmur2 implements a whitespace-stripping MurmurHash2. The repair
// manager uses it for the instance drift hash.
package murmur2

import (
	"encoding/binary"
	"hash"

	"github.com/aviddiviner/go-murmur"
)

const seed = 1

type Murmur2CF struct {
	buf []byte
}

func New() hash.Hash32 {
	return &Murmur2CF{}
}

// Write buffers p with tab, newline, carriage return and space removed.
func (m *Murmur2CF) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == 9 || b == 10 || b == 13 || b == 32 {
			continue
		}
		m.buf = append(m.buf, b)
	}
	return len(p), nil
}

func (m *Murmur2CF) Sum(b []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, m.Sum32())
	return append(b, out...)
}

func (m *Murmur2CF) Sum32() uint32 {
	return murmur.MurmurHash2(m.buf, seed)
}

func (m *Murmur2CF) Reset() {
	m.buf = m.buf[:0]
}

func (m *Murmur2CF) Size() int {
	return 4
}

func (m *Murmur2CF) BlockSize() int {
	return 4
}
