// Package integ verifies downloaded source files against the checksum
// arrays a recipe declares.
package integ

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// digest pairs a running hash with the rendering its checksum array uses:
// hex for the cryptographic algorithms, decimal for the POSIX cksum CRC
type digest struct {
	hash.Hash
	decimal bool
}

func newDigest(algo string) (*digest, error) {
	switch algo {
	case "ck":
		return &digest{Hash: newCksum(), decimal: true}, nil
	case "md5":
		return &digest{Hash: md5.New()}, nil
	case "sha1":
		return &digest{Hash: sha1.New()}, nil
	case "sha224":
		return &digest{Hash: sha256.New224()}, nil
	case "sha256":
		return &digest{Hash: sha256.New()}, nil
	case "sha384":
		return &digest{Hash: sha512.New384()}, nil
	case "sha512":
		return &digest{Hash: sha512.New()}, nil
	case "b2":
		h, err := blake2b.New512(nil)
		if err != nil {
			return nil, err
		}
		return &digest{Hash: h}, nil
	default:
		return nil, fmt.Errorf("unknown checksum algorithm %q", algo)
	}
}

func (d *digest) render() string {
	sum := d.Sum(nil)
	if d.decimal {
		return strconv.FormatUint(uint64(binary.BigEndian.Uint32(sum)), 10)
	}
	return hex.EncodeToString(sum)
}

// FileDigests computes the named digests of one file in a single pass
func FileDigests(path string, algos []string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	digests := make(map[string]*digest, len(algos))
	writers := make([]io.Writer, 0, len(algos))
	for _, algo := range algos {
		if _, ok := digests[algo]; ok {
			continue
		}
		d, err := newDigest(algo)
		if err != nil {
			return nil, err
		}
		digests[algo] = d
		writers = append(writers, d)
	}

	// Stream the file through all hashes at once
	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return nil, err
	}

	sums := make(map[string]string, len(digests))
	for algo, d := range digests {
		sums[algo] = d.render()
	}
	return sums, nil
}
