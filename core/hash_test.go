package core

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashImpl(t *testing.T) {
	tests := []struct {
		name     string
		hashType string
		wantErr  bool
	}{
		{"Default", "", false},
		{"SHA1", "sha1", false},
		{"SHA1 uppercase", "SHA1", false},
		{"SHA256", "sha256", false},
		{"SHA512", "sha512", false},
		{"MD5", "md5", false},
		{"Murmur2", "murmur2", false},
		{"Invalid hash", "invalid-hash", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetHashImpl(tt.hashType)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, got)
			}
		})
	}
}

func TestHexStringer(t *testing.T) {
	tests := []struct {
		hashType string
		want     string
	}{
		{"sha1", "f48dd853820860816c75d54d0f584dc863327a7c"},
		{"sha256", "916f0027a575074ce72a331777c3478d6513f786a591bd892da1a577bf2335f9"},
		{"md5", "eb733a00c0c9d336e65691a37ab54293"},
	}

	for _, tt := range tests {
		t.Run(tt.hashType, func(t *testing.T) {
			got, err := HashBytes([]byte("test data"), tt.hashType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumber32As64Stringer(t *testing.T) {
	hasher, err := GetHashImpl("murmur2")
	require.NoError(t, err)

	_, err = hasher.Write([]byte("test data"))
	require.NoError(t, err)

	_, err = strconv.ParseUint(hasher.String(), 10, 64)
	assert.NoError(t, err)
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("test data"), 0o644))

	sum, size, err := HashFile(path, "sha1")
	require.NoError(t, err)
	assert.Equal(t, "f48dd853820860816c75d54d0f584dc863327a7c", sum)
	assert.Equal(t, int64(9), size)
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("test data"), 0o644))

	t.Run("matches", func(t *testing.T) {
		assert.NoError(t, VerifyFile(path, "sha1", "F48DD853820860816C75D54D0F584DC863327A7C", 9))
	})

	t.Run("no expectations", func(t *testing.T) {
		assert.NoError(t, VerifyFile(path, "", "", 0))
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := VerifyFile(path, "sha1", "", 10)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("hash mismatch", func(t *testing.T) {
		err := VerifyFile(path, "sha1", "0000000000000000000000000000000000000000", 0)
		require.Error(t, err)
		assert.Equal(t, KindIntegrity, KindOf(err))
	})

	t.Run("missing file", func(t *testing.T) {
		err := VerifyFile(filepath.Join(t.TempDir(), "nope"), "sha1", "", 0)
		assert.True(t, os.IsNotExist(err))
	})
}
