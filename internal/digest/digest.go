// Package digest computes the content identities used for versioning and
// idempotent ingestion: a SHA-256 digest over raw file bytes, and a message
// fingerprint over the identifying fields of a conversation event.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Sum returns the lowercase hex SHA-256 digest of the given bytes. Identical
// bytes always yield the identical digest; filenames, timestamps and other
// metadata never influence it.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// MessageFingerprint derives a deterministic fingerprint for a conversation
// message from its identifying fields. Fields are length-prefixed before
// hashing so no separator can be forged by field content.
func MessageFingerprint(clientID, direction string, timestamp int64, messageType, content string) string {
	h := sha256.New()

	writeField := func(field string) {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(field)))
		h.Write(lenBuf[:])
		h.Write([]byte(field))
	}

	writeField(clientID)
	writeField(direction)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(timestamp))
	h.Write(tsBuf[:])

	writeField(messageType)
	writeField(content)

	return hex.EncodeToString(h.Sum(nil))
}
