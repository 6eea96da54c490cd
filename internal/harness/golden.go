package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// AssertEquivalent fails the test unless the obfuscated module behaved
// exactly like the original: same output bytes, same exit value.
func AssertEquivalent(t *testing.T, result *Result) {
	t.Helper()
	require.Equal(t, result.Before.Exit, result.After.Exit, "exit value changed under obfuscation")
	require.Equal(t, string(result.Before.Output), string(result.After.Output), "output changed under obfuscation")
}

// RunWithGolden executes a scenario, checks semantic equivalence, and
// compares the obfuscated module's canonical dump against the golden file
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	require.NoError(t, err)

	AssertEquivalent(t, result)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, result.Dump)

	return result
}
