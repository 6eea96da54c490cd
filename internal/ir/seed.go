package ir

import "hash/fnv"

// FnSeedValue is the runtime semantics of OpFnSeed: the FNV-32a hash of the
// enclosing function's name, widened to int64. Deriving the opaque-predicate
// seed from the name rather than a runtime address keeps builds reproducible
// while remaining opaque to a static analyzer that does not model this
// opcode.
func FnSeedValue(name string) int64 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int64(h.Sum32())
}
