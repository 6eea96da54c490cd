// Package interp is a reference executor for the IR.
//
// It exists to make the engine's semantic guarantees testable: a program is
// run before and after obfuscation and the two observable results - emitted
// output and exit value - must match byte for byte. The CLI also exposes it
// as `veil run` for inspecting what a module does.
//
// Execution model: initializers run first in ascending priority order, then
// main. Globals are copied into interpreter-private state before execution,
// so running a module never mutates the ir.Module itself (the startup
// decryptor writes global bytes in place at runtime). A step quota bounds
// every run; exceeding it yields a typed StepsExceededError instead of a
// hang.
package interp
