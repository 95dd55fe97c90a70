package rtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitWriterReaderRoundTrip(t *testing.T) {
	w := &bitWriter{}
	w.pushBits(0b1011, 4)
	w.pushBits(0b1, 1)
	w.pushBits(0b101010, 6)

	r := w.reader(0)
	assert.Equal(t, uint64(0b1011), r.readBits(4))
	assert.Equal(t, uint64(0b1), r.readBits(1))
	assert.Equal(t, uint64(0b101010), r.readBits(6))
}

func TestBitWriterLoadDoesNotMoveCursor(t *testing.T) {
	w := &bitWriter{}
	w.pushBits(42, 8)
	w.pushBits(7, 8)

	r := w.reader(0)
	assert.Equal(t, uint64(7), r.load(8, 8))
	assert.Equal(t, uint64(42), r.readBits(8))
}

func TestRiceEncodeDecodeRoundTrip(t *testing.T) {
	for _, k := range []uint8{1, 2, 4, 8} {
		w := &bitWriter{}
		values := []uint64{0, 1, 2, 5, 17, 100, 1000, 1 << 20}
		for _, v := range values {
			riceEncode(v, k, w)
		}

		r := w.reader(0)
		for _, want := range values {
			got := riceDecode(k, r)
			assert.Equal(t, want, got, "k=%d", k)
		}
	}
}
