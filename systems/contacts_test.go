package systems

import (
	"testing"

	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

// contactFixture places one two-root tree at x=100. Its roots sit at world
// (105, 0, 0) and (95, 0, 2).
func contactFixture() (ContactTarget, uuid.UUID) {
	id := uuid.New()
	tree := growth.NewDendriticTree(id, 10)
	tree.Initialize(2)
	return ContactTarget{ID: id, Soma: growth.NewPosition(100, 0, 0), Tree: tree}, uuid.New()
}

func synapseCount(tree *growth.DendriticTree) int {
	n := 0
	for _, id := range tree.SegmentIDs() {
		n += len(tree.Segment(id).Synapses())
	}
	return n
}

func TestContactLedgerFormsOnFiringTip(t *testing.T) {
	target, source := contactFixture()
	l := NewContactLedger(2, 3)
	targets := []ContactTarget{target}

	quiet := []AxonTip{{Source: source, Position: growth.NewPosition(105, 1, 0)}}
	if got := l.Form(quiet, targets); len(got) != 0 {
		t.Fatalf("silent tip formed %d contacts", len(got))
	}

	tips := []AxonTip{{Source: source, Position: growth.NewPosition(105, 1, 0), Firing: true}}
	got := l.Form(tips, targets)
	if len(got) != 1 {
		t.Fatalf("formed %d contacts, want 1", len(got))
	}
	if got[0].Segment != target.Tree.RootSegmentIDs()[0] {
		t.Errorf("contact on wrong segment")
	}
	if syn := target.Tree.Synapse(got[0].Synapse); syn == nil || syn.SourceNeuronID() != source {
		t.Errorf("synapse not attached to target tree")
	}
	if l.Count(source, target.ID) != 1 {
		t.Errorf("ledger count = %d, want 1", l.Count(source, target.ID))
	}

	if again := l.Form(tips, targets); len(again) != 0 {
		t.Errorf("same segment received a second synapse from one source")
	}
}

func TestContactLedgerSkipsSelf(t *testing.T) {
	target, _ := contactFixture()
	l := NewContactLedger(5, 0)

	tips := []AxonTip{{Source: target.ID, Position: growth.NewPosition(105, 0, 0), Firing: true}}
	if got := l.Form(tips, []ContactTarget{target}); len(got) != 0 {
		t.Errorf("neuron formed %d synapses onto itself", len(got))
	}
}

func TestContactLedgerMaxPerPair(t *testing.T) {
	target, source := contactFixture()
	l := NewContactLedger(20, 1)

	tips := []AxonTip{{Source: source, Position: growth.NewPosition(100, 0, 0), Firing: true}}
	if got := l.Form(tips, []ContactTarget{target}); len(got) != 1 {
		t.Fatalf("formed %d contacts, want 1 with max_per_pair=1", len(got))
	}

	unbounded := NewContactLedger(20, 0)
	other, src := contactFixture()
	tips[0].Source = src
	if got := unbounded.Form(tips, []ContactTarget{other}); len(got) != 2 {
		t.Errorf("unbounded ledger formed %d contacts, want 2", len(got))
	}
}

func TestContactLedgerZeroRadiusDisabled(t *testing.T) {
	target, source := contactFixture()
	l := NewContactLedger(0, 0)
	tips := []AxonTip{{Source: source, Position: growth.NewPosition(105, 0, 0), Firing: true}}

	if got := l.Form(tips, []ContactTarget{target}); got != nil {
		t.Errorf("zero radius formed %d contacts", len(got))
	}
}

func TestContactLedgerRebuild(t *testing.T) {
	target, source := contactFixture()
	roots := target.Tree.RootSegmentIDs()
	target.Tree.AddSynapse(roots[0], source)
	target.Tree.AddSynapse(roots[1], source)

	l := NewContactLedger(20, 2)
	l.Rebuild([]ContactTarget{target})
	if l.Count(source, target.ID) != 2 {
		t.Fatalf("rebuilt count = %d, want 2", l.Count(source, target.ID))
	}

	tips := []AxonTip{{Source: source, Position: growth.NewPosition(100, 0, 0), Firing: true}}
	if got := l.Form(tips, []ContactTarget{target}); len(got) != 0 {
		t.Errorf("rebuilt ledger ignored the pair bound")
	}
	if synapseCount(target.Tree) != 2 {
		t.Errorf("synapse count = %d, want 2", synapseCount(target.Tree))
	}
}
