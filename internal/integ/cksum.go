package integ

import "hash"

// POSIX cksum CRC: polynomial 0x04C11DB7, unreflected, with the message
// length fed through the register before the final complement. Not the
// same checksum as IEEE crc32, so the stdlib table cannot be reused.
const cksumPoly = 0x04C11DB7

var cksumTable [256]uint32

func init() {
	for i := range cksumTable {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ cksumPoly
			} else {
				crc <<= 1
			}
		}
		cksumTable[i] = crc
	}
}

type cksum struct {
	crc    uint32
	length uint64
}

func newCksum() hash.Hash {
	return &cksum{}
}

func (c *cksum) Write(p []byte) (int, error) {
	for _, b := range p {
		c.crc = c.crc<<8 ^ cksumTable[byte(c.crc>>24)^b]
	}
	c.length += uint64(len(p))
	return len(p), nil
}

func (c *cksum) Sum(in []byte) []byte {
	crc := c.crc
	for length := c.length; length > 0; length >>= 8 {
		crc = crc<<8 ^ cksumTable[byte(crc>>24)^byte(length)]
	}
	crc = ^crc
	return append(in, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
}

func (c *cksum) Reset() {
	c.crc = 0
	c.length = 0
}

func (c *cksum) Size() int { return 4 }

func (c *cksum) BlockSize() int { return 1 }
