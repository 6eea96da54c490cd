package engine

// Stats accumulates counts of each mutation applied during one Run. It is
// returned to the caller; the engine itself keeps no counters between runs.
type Stats struct {
	FunctionsVisited int
	BogusBlocks      int
	NopsInserted     int
	LoopsWrapped     int
	StringsEncrypted int
}

// Add merges other into s. Useful when a driver aggregates several cycles.
func (s *Stats) Add(other Stats) {
	s.FunctionsVisited += other.FunctionsVisited
	s.BogusBlocks += other.BogusBlocks
	s.NopsInserted += other.NopsInserted
	s.LoopsWrapped += other.LoopsWrapped
	s.StringsEncrypted += other.StringsEncrypted
}
