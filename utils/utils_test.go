package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("@", "SELECT 1"), Fingerprint("@", "SELECT 1"))
	assert.NotEqual(t, Fingerprint("@", "SELECT 1"), Fingerprint(":", "SELECT 1"))
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
	assert.NotEqual(t, Fingerprint(), Fingerprint(""))
}

func TestMix64(t *testing.T) {
	a, b := U64("postgres"), U64("SELECT $1")
	assert.Equal(t, Mix64(a, b), Mix64(a, b))
	assert.NotEqual(t, Mix64(a, b), Mix64(b, a))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, U64ToBytes(0x0102))
}
