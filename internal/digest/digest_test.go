package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum_Deterministic(t *testing.T) {
	data := []byte("expediente payload")
	first := Sum(data)
	second := Sum(data)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestSum_KnownVector(t *testing.T) {
	// sha256("") is a fixed vector
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Sum(nil))
}

func TestSum_DistinctContent(t *testing.T) {
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestMessageFingerprint_Deterministic(t *testing.T) {
	a := MessageFingerprint("client-1", "inbound", 1700000000, "text", "hola")
	b := MessageFingerprint("client-1", "inbound", 1700000000, "text", "hola")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestMessageFingerprint_FieldSensitivity(t *testing.T) {
	base := MessageFingerprint("client-1", "inbound", 1700000000, "text", "hola")

	assert.NotEqual(t, base, MessageFingerprint("client-2", "inbound", 1700000000, "text", "hola"))
	assert.NotEqual(t, base, MessageFingerprint("client-1", "outbound", 1700000000, "text", "hola"))
	assert.NotEqual(t, base, MessageFingerprint("client-1", "inbound", 1700000001, "text", "hola"))
	assert.NotEqual(t, base, MessageFingerprint("client-1", "inbound", 1700000000, "image", "hola"))
	assert.NotEqual(t, base, MessageFingerprint("client-1", "inbound", 1700000000, "text", "hola!"))
}

func TestMessageFingerprint_NoFieldBoundaryAmbiguity(t *testing.T) {
	// Shifting a character across the field boundary must change the hash;
	// length prefixing guarantees it.
	a := MessageFingerprint("ab", "inbound", 1, "cx", "y")
	b := MessageFingerprint("ab", "inbound", 1, "c", "xy")
	assert.NotEqual(t, a, b)
}
