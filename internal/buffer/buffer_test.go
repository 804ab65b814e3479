package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
)

func TestBuffer_Append(t *testing.T) {
	b := New(8)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 8, b.Cap())

	require.NoError(t, b.Append([]byte("hello"), 0, 5))
	require.NoError(t, b.Append([]byte("xxworldxx"), 2, 5))
	assert.Equal(t, 10, b.Len())
	assert.Equal(t, "helloworld", string(b.Bytes()))

	// Grew past the hint without losing bytes
	assert.GreaterOrEqual(t, b.Cap(), 10)
}

func TestBuffer_AppendBounds(t *testing.T) {
	src := []byte("abc")

	tests := []struct {
		name string
		off  int
		n    int
		ok   bool
	}{
		{"whole", 0, 3, true},
		{"empty at end", 3, 0, true},
		{"tail", 2, 1, true},
		{"negative offset", -1, 1, false},
		{"negative length", 0, -1, false},
		{"offset past end", 4, 0, false},
		{"length past end", 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(4)
			require.NoError(t, b.Append([]byte("z"), 0, 1))

			err := b.Append(src, tt.off, tt.n)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, 1+tt.n, b.Len())
				return
			}
			assert.ErrorIs(t, err, errors.ErrOutOfBounds)
			assert.Equal(t, 1, b.Len())
		})
	}
}

func TestBuffer_AppendByte(t *testing.T) {
	b := New(2)
	for _, c := range []byte("abc") {
		require.NoError(t, b.AppendByte(c))
	}
	assert.Equal(t, "abc", string(b.Bytes()))
}

func TestBuffer_ResetKeepsStorage(t *testing.T) {
	b := New(16)
	require.NoError(t, b.Append([]byte("0123456789"), 0, 10))
	capBefore := b.Cap()

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Bytes())
	assert.Equal(t, capBefore, b.Cap())

	require.NoError(t, b.Append([]byte("x"), 0, 1))
	assert.Equal(t, "x", string(b.Bytes()))
}

func TestBuffer_Release(t *testing.T) {
	b := New(16)
	require.NoError(t, b.Append([]byte("data"), 0, 4))
	b.Release()
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Bytes())
}
