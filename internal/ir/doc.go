// Package ir defines the control-flow-graph program representation that the
// obfuscation engine mutates.
//
// A Module owns an ordered list of Functions, GlobalVariables, and a startup
// initializer table. A defined Function owns two arenas: one for its
// BasicBlocks and one for its Instructions. Arena slots are addressed by
// stable identifiers (BlockID, ValueID) that remain valid across every
// mutation - splitting a block, moving instructions between blocks, or
// inserting new blocks never invalidates an outstanding reference. All graph
// edges (branch targets, operand references) are identifier-based for the
// same reason.
//
// INVARIANTS (checked by Verify):
//   - Function and global names are unique within a Module.
//   - A defined Function has exactly one entry block, and every block is
//     reachable from it through terminator edges.
//   - The last instruction of every block is a control transfer, and no
//     earlier instruction is one. This holds after every mutation, with one
//     sanctioned exception: SplitBlock leaves the predecessor without a
//     terminator, and the caller must install one before handing the Module
//     to anything else.
//   - No operand or branch references a value or block outside its Function.
//
// The package also provides a canonical textual form (Dump/Parse) used by
// the CLI, golden tests, and the module fingerprint.
package ir
