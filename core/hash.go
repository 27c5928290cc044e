package core

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
	"strings"

	"github.com/leocov-dev/launchwiz/core/murmur2"
)

// DefaultHashFormat is what Mojang and the loader metadata APIs publish.
const DefaultHashFormat = "sha1"

// GetHashImpl gets an implementation of hash.Hash for the given hash type string
func GetHashImpl(hashType string) (HashStringer, error) {
	switch strings.ToLower(hashType) {
	case "", "sha1":
		return &hexStringer{sha1.New()}, nil
	case "sha256":
		return &hexStringer{sha256.New()}, nil
	case "sha512":
		return &hexStringer{sha512.New()}, nil
	case "md5":
		return &hexStringer{md5.New()}, nil
	case "murmur2":
		return &number32As64Stringer{murmur2.New()}, nil
	}
	return nil, fmt.Errorf("hash implementation %s not found", hashType)
}

type HashStringer interface {
	hash.Hash
	String() string
}

type hexStringer struct {
	hash.Hash
}

func (h *hexStringer) String() string {
	return hex.EncodeToString(h.Sum(nil))
}

type number32As64Stringer struct {
	hash.Hash
}

func (h *number32As64Stringer) String() string {
	return strconv.FormatUint(uint64(binary.BigEndian.Uint32(h.Sum(nil))), 10)
}

// HashFile streams a file through the named hash and returns the digest and size.
func HashFile(path, hashType string) (string, int64, error) {
	h, err := GetHashImpl(hashType)
	if err != nil {
		return "", 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	n, err := io.Copy(h, f)
	if err != nil {
		return "", n, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.String(), n, nil
}

// HashBytes returns the digest of b using the named hash.
func HashBytes(b []byte, hashType string) (string, error) {
	h, err := GetHashImpl(hashType)
	if err != nil {
		return "", err
	}
	if _, err := h.Write(b); err != nil {
		return "", err
	}
	return h.String(), nil
}

// VerifyFile checks size (when > 0) and hash (when non-empty) of a file on disk.
func VerifyFile(path, hashType, expected string, size int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if size > 0 && info.Size() != size {
		return NewError(KindIntegrity, "verify size", path, fmt.Errorf("expected %d bytes, found %d", size, info.Size()))
	}
	if expected == "" {
		return nil
	}
	got, _, err := HashFile(path, hashType)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, expected) {
		return NewError(KindIntegrity, "verify hash", path, fmt.Errorf("expected %s %s, found %s", hashType, expected, got))
	}
	return nil
}
