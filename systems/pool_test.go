package systems

import (
	"testing"

	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

func buildJobs(n int) []GrowthJob {
	jobs := make([]GrowthJob, n)
	for i := range jobs {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i)})
		soma := growth.NewPosition(float32(i)*10, 0, 0)
		tree := growth.NewDendriticTree(id, 200)
		tree.Initialize(3)
		jobs[i] = GrowthJob{
			Index:    i,
			Axon:     growth.NewAxonGrowth(soma, 50),
			Tree:     tree,
			Soma:     soma,
			Activity: 0.3,
		}
	}
	return jobs
}

func runTicks(pool *GrowthPool, jobs []GrowthJob, ticks int) (moved float32, branches int) {
	env := NewEnvironment([]growth.GrowthFactor{
		growth.NewGrowthFactor(growth.NewPosition(0, 30, 0), 1, 60, growth.Attractive),
	})
	for tick := 0; tick < ticks; tick++ {
		for _, r := range pool.Run(env, jobs, 0.1) {
			moved += r.Moved
			if r.Branched {
				branches++
			}
		}
	}
	return moved, branches
}

func TestGrowthPoolParallelMatchesSerial(t *testing.T) {
	serial := NewGrowthPool(1)
	parallel := NewGrowthPool(4)
	defer parallel.Stop()

	a := buildJobs(16)
	b := buildJobs(16)

	movedA, branchesA := runTicks(serial, a, 30)
	movedB, branchesB := runTicks(parallel, b, 30)

	if movedA != movedB || branchesA != branchesB {
		t.Fatalf("serial (%v, %d) != parallel (%v, %d)", movedA, branchesA, movedB, branchesB)
	}
	if branchesA == 0 {
		t.Error("expected some branching over 30 ticks")
	}
	for i := range a {
		if a[i].Tree.SegmentCount() != b[i].Tree.SegmentCount() {
			t.Errorf("job %d: segment count %d != %d", i, a[i].Tree.SegmentCount(), b[i].Tree.SegmentCount())
		}
		if a[i].Axon.Position() != b[i].Axon.Position() {
			t.Errorf("job %d: axon position diverged", i)
		}
	}
}

func TestGrowthPoolEmpty(t *testing.T) {
	pool := NewGrowthPool(2)
	if got := pool.Run(NewEnvironment(nil), nil, 0.1); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestGrowthPoolNilParts(t *testing.T) {
	pool := NewGrowthPool(1)
	jobs := []GrowthJob{{Index: 0}}
	res := pool.Run(NewEnvironment(nil), jobs, 0.1)
	if len(res) != 1 || res[0].Moved != 0 || res[0].Branched {
		t.Errorf("job without axon or tree should be a no-op, got %+v", res)
	}
}

func TestGrowthPoolStopRestart(t *testing.T) {
	pool := NewGrowthPool(2)
	jobs := buildJobs(parallelThreshold)
	env := NewEnvironment(nil)

	pool.Run(env, jobs, 0.1)
	pool.Stop()
	pool.Stop()
	res := pool.Run(env, jobs, 0.1)
	pool.Stop()

	if len(res) != len(jobs) {
		t.Errorf("results after restart = %d, want %d", len(res), len(jobs))
	}
}
