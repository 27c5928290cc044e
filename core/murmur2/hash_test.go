package murmur2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteStripsWhitespace(t *testing.T) {
	m := New().(*Murmur2CF)

	n, err := m.Write([]byte("Hello, World!\t\n\r "))
	assert.NoError(t, err)
	assert.Equal(t, 17, n)
	assert.Equal(t, []byte("Hello,World!"), m.buf)
}

func TestSumIgnoresWhitespace(t *testing.T) {
	a := New()
	_, _ = a.Write([]byte("mods/a.jar 12\nmods/b.jar 7"))

	b := New()
	_, _ = b.Write([]byte("mods/a.jar12mods/b.jar7"))

	assert.Equal(t, a.Sum32(), b.Sum32())
	assert.Len(t, a.Sum(nil), 4)
}

func TestReset(t *testing.T) {
	m := New()
	_, _ = m.Write([]byte("something"))
	m.Reset()

	empty := New()
	assert.Equal(t, empty.Sum32(), m.Sum32())
}
