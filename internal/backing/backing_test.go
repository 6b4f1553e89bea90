package backing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"", Heap, true},
		{"heap", Heap, true},
		{"MMAP", Mmap, true},
		{" mmap ", Mmap, true},
		{"shm", Heap, false},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if !tt.ok {
			require.ErrorIs(t, err, ErrBadKind, "ParseKind(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseKind(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseKind(%q)", tt.in)
	}
}

func TestKindText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("mmap")))
	assert.Equal(t, Mmap, k)

	text, err := k.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "mmap", string(text))

	_, err = Kind(7).MarshalText()
	assert.ErrorIs(t, err, ErrBadKind)
	assert.Equal(t, "unknown", Kind(7).String())
}

func TestAllocateBadSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Allocate(Heap, n)
		assert.ErrorIs(t, err, ErrBadSize, "Allocate(%d)", n)
	}
	_, err := Allocate(Kind(9), 16)
	assert.ErrorIs(t, err, ErrBadKind)
}

func TestAllocateHeapTooLarge(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("needs a 64-bit int")
	}
	n := 1
	n <<= 62
	b, err := Allocate(Heap, n)
	require.ErrorIs(t, err, ErrBadSize)
	assert.Nil(t, b)
}

func TestAllocateAndRelease(t *testing.T) {
	for _, kind := range []Kind{Heap, Mmap} {
		t.Run(kind.String(), func(t *testing.T) {
			b, err := Allocate(kind, 8192)
			require.NoError(t, err)
			require.Equal(t, 8192, b.Len())

			data := b.Bytes()
			for i := range data {
				require.Zero(t, data[i], "byte %d not zeroed", i)
			}
			data[0], data[len(data)-1] = 0xAA, 0x55
			assert.Equal(t, byte(0xAA), b.Bytes()[0])

			require.NoError(t, b.Release())
			assert.Nil(t, b.Bytes())
			assert.Zero(t, b.Len())
			// Second release is a no-op.
			require.NoError(t, b.Release())
		})
	}
}
