// Package engine implements the obfuscation pipeline: a fixed sequence of
// semantics-preserving mutations applied in place to one ir.Module.
//
// PIPELINE ORDER:
//  1. Per-function passes, in a fixed order for every eligible function:
//     bogus-block insertion, NOP injection, loop wrapping. Eligible means
//     defined and not carrying the engine's own runtime prefix.
//  2. The module-wide string encryption pass. It mutates shared module
//     state (the global list and the initializer table) and therefore MUST
//     run after all per-function work.
//  3. ir.Verify - the single correctness backstop. A module that fails
//     verification is never returned as a successful result.
//
// The engine is a synchronous, single-threaded batch transform: the Module
// is exclusively owned by Run for the duration of a call, there are no
// suspension points, and no I/O happens during transformation. Passes hold
// no instance state; each is a pure function of (Module, Config) and the
// accumulated Stats are returned to the caller rather than kept anywhere.
//
// Every pass preserves one safety property or another that makes its
// structural changes invisible at runtime: decoy blocks only touch storage
// nothing else reads, NOP results are never consumed, wrapped loop bodies
// execute exactly once, and string encryption is exactly inverted by the
// startup decryptor it synthesizes.
package engine
