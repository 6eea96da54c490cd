package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainModule is the domain-separation prefix for module fingerprints.
// The version suffix enables future algorithm migration.
const DomainModule = "veil/module/v1"

// Fingerprint computes a content-addressed identity for the module:
// SHA-256 over the domain prefix, a NUL separator, and the canonical dump.
// Two modules with the same fingerprint have byte-identical dumps, so the
// run-history store can use it to tie a recorded run to its exact input and
// output artifacts.
func Fingerprint(m *Module) string {
	h := sha256.New()
	h.Write([]byte(DomainModule))
	h.Write([]byte{0x00}) // separator prevents domain/data boundary ambiguity
	h.Write(Dump(m))
	return hex.EncodeToString(h.Sum(nil))
}
