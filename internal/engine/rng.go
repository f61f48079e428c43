package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

const roundSize = sha256.Size

// ByteStream yields the provably-fair byte sequence for one (server, client, nonce)
// triple. Each 32-byte round is HMAC-SHA256(server, "client:nonce:round").
type ByteStream struct {
	seeds  Seeds
	nonce  uint64
	round  uint64
	pos    int
	buffer [roundSize]byte
}

// NewByteStream positions a stream at cursor bytes into the nonce's sequence.
func NewByteStream(seeds Seeds, nonce uint64, cursor uint64) *ByteStream {
	bs := &ByteStream{
		seeds: seeds,
		nonce: nonce,
		round: cursor / roundSize,
		pos:   int(cursor % roundSize),
	}
	bs.fill()
	return bs
}

// Next returns the next byte, rolling over to a fresh round when the buffer is spent.
func (bs *ByteStream) Next() byte {
	if bs.pos >= roundSize {
		bs.round++
		bs.pos = 0
		bs.fill()
	}
	b := bs.buffer[bs.pos]
	bs.pos++
	return b
}

// NextFloat consumes 4 bytes and returns a float in [0, 1).
func (bs *ByteStream) NextFloat() float64 {
	var b [4]byte
	for i := range b {
		b[i] = bs.Next()
	}
	return bytesToFloat(b)
}

func (bs *ByteStream) fill() {
	mac := hmac.New(sha256.New, []byte(bs.seeds.Server))
	fmt.Fprintf(mac, "%s:%d:%d", bs.seeds.Client, bs.nonce, bs.round)
	copy(bs.buffer[:], mac.Sum(nil))
}

// bytesToFloat sums b[i] / 256^(i+1).
func bytesToFloat(b [4]byte) float64 {
	result := 0.0
	divider := 1.0
	for _, v := range b {
		divider *= 256
		result += float64(v) / divider
	}
	return result
}
