// Package store provides the durable run-history database.
//
// Every successful obfuscation run can be recorded as one row: the module
// fingerprints before and after transformation plus the mutation counts the
// engine reported. The history gives operators an audit trail of what was
// shipped - which input produced which artifact, under which amount of
// mutation - and `veil history` reads it back.
//
// SQLite with WAL mode; the schema is embedded and applied idempotently on
// Open.
package store
