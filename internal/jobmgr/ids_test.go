package jobmgr

import "testing"

func TestNewJobIDIsUniqueForSmallBatch(t *testing.T) {
	seen := make(map[string]bool, 128)
	for i := 0; i < 128; i++ {
		id := NewJobID()
		if len(id) != 32 {
			t.Fatalf("job id %q has length %d, want 32", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate job id %q at iteration %d", id, i)
		}
		seen[id] = true
	}
}
