// Package hashfn dispatches to the hash functions a rainbow table can be
// built against. NTLM is modeled as MD4 over the UTF-16LE expansion of an
// ASCII password, matching how Windows derives it.
package hashfn

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/sha3"
)

// Function is a closed enumeration of the supported hash functions.
// Kept as a tagged value rather than an interface so the hot reduction
// loop in internal/codec can switch on it without virtual dispatch.
type Function uint8

const (
	Ntlm Function = iota
	Md4
	Md5
	Sha1
	Sha2_224
	Sha2_256
	Sha2_384
	Sha2_512
	Sha3_224
	Sha3_256
	Sha3_384
	Sha3_512
)

func (f Function) String() string {
	switch f {
	case Ntlm:
		return "Ntlm"
	case Md4:
		return "Md4"
	case Md5:
		return "Md5"
	case Sha1:
		return "Sha1"
	case Sha2_224:
		return "Sha2_224"
	case Sha2_256:
		return "Sha2_256"
	case Sha2_384:
		return "Sha2_384"
	case Sha2_512:
		return "Sha2_512"
	case Sha3_224:
		return "Sha3_224"
	case Sha3_256:
		return "Sha3_256"
	case Sha3_384:
		return "Sha3_384"
	case Sha3_512:
		return "Sha3_512"
	default:
		return "Unknown"
	}
}

// Parse resolves a hash function from its CLI/display name. It is the
// inverse of Function.String.
func Parse(name string) (Function, error) {
	for f := Ntlm; f <= Sha3_512; f++ {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown hash function %q", name)
}

// New returns a fresh hash.Hash for this function. NTLM's hasher is plain
// MD4 and expects the UTF-16LE-expanded bytes as input; only Sum performs
// that expansion.
func (f Function) New() hash.Hash {
	switch f {
	case Ntlm, Md4:
		return md4.New()
	case Md5:
		return md5.New()
	case Sha1:
		return sha1.New()
	case Sha2_224:
		return sha256.New224()
	case Sha2_256:
		return sha256simd.New()
	case Sha2_384:
		return sha512.New384()
	case Sha2_512:
		return sha512.New()
	case Sha3_224:
		return sha3.New224()
	case Sha3_256:
		return sha3.New256()
	case Sha3_384:
		return sha3.New384()
	case Sha3_512:
		return sha3.New512()
	default:
		panic("unreachable hash function")
	}
}

// DigestSize returns the output width in bytes for this hash function.
func (f Function) DigestSize() int {
	switch f {
	case Ntlm, Md4:
		return 16
	case Md5:
		return 16
	case Sha1:
		return 20
	case Sha2_224, Sha3_224:
		return 28
	case Sha2_256, Sha3_256:
		return 32
	case Sha2_384, Sha3_384:
		return 48
	case Sha2_512, Sha3_512:
		return 64
	default:
		panic("unreachable hash function")
	}
}

// Sum hashes password under this function, returning its digest.
func (f Function) Sum(password []byte) []byte {
	if f == Ntlm {
		return sumNtlm(password)
	}
	h := f.New()
	h.Write(password)
	return h.Sum(nil)
}

// sumNtlm UTF-16LE-encodes an ASCII password and runs it through MD4.
func sumNtlm(password []byte) []byte {
	buf := make([]byte, 0, len(password)*2)
	for _, c := range password {
		buf = append(buf, c, 0)
	}
	h := md4.New()
	h.Write(buf)
	return h.Sum(nil)
}
