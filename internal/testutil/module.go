package testutil

import (
	"testing"

	"github.com/veilcc/veil/internal/ir"
)

// MustParse parses a textual IR module and fails the test on any error.
// Test fixtures live inline as source text; this keeps them readable next
// to the assertions that consume them.
func MustParse(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := ir.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse test module: %v", err)
	}
	return m
}
