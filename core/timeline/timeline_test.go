package timeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IRENA-FlexTool/FlexTool/core/model"
)

func uniformTimeline(name string, n int) model.Timeline {
	tl := model.Timeline{Name: name}
	for i := 0; i < n; i++ {
		tl.Steps = append(tl.Steps, model.Step{ID: fmt.Sprintf("t%02d", i), Duration: 1})
	}
	return tl
}

func newTestRegistry(t *testing.T, blocks ...model.Timeblock) *Registry {
	t.Helper()
	bind := make(map[string]string)
	for _, b := range blocks {
		bind[b.Name] = "y"
	}
	reg, err := NewRegistry([]model.Timeline{uniformTimeline("y", 12)}, blocks, bind)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestComposeStepCountMatchesBlockLengths(t *testing.T) {
	reg := newTestRegistry(t,
		model.Timeblock{Name: "weeks", Blocks: []model.Block{{Start: "t00", Length: 2}, {Start: "t05", Length: 2.5}}},
		model.Timeblock{Name: "full", Blocks: []model.Block{{Start: "t00", Length: 12}}},
	)
	at, err := Compose(reg, "s", []model.PeriodBinding{{Period: "p2020", Timeblock: "weeks"}, {Period: "p2030", Timeblock: "full"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2020", "p2030"}, at.Periods())
	assert.Equal(t, 2+3+12, at.Len())
	steps, _ := at.Period("p2020")
	var idx []int
	for _, s := range steps {
		idx = append(idx, s.Index)
	}
	assert.Equal(t, []int{0, 1, 5, 6, 7}, idx)
}

func TestComposeMergesRepeatedPeriod(t *testing.T) {
	reg := newTestRegistry(t,
		model.Timeblock{Name: "a", Blocks: []model.Block{{Start: "t00", Length: 2}}},
		model.Timeblock{Name: "b", Blocks: []model.Block{{Start: "t04", Length: 1}}},
		model.Timeblock{Name: "c", Blocks: []model.Block{{Start: "t00", Length: 1}}},
	)
	at, err := Compose(reg, "s", []model.PeriodBinding{
		{Period: "p1", Timeblock: "a"},
		{Period: "p2", Timeblock: "c"},
		{Period: "p1", Timeblock: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, at.Periods())
	steps, _ := at.Period("p1")
	assert.Len(t, steps, 3)
}

func TestComposeErrors(t *testing.T) {
	reg := newTestRegistry(t,
		model.Timeblock{Name: "late", Blocks: []model.Block{{Start: "t10", Length: 5}}},
		model.Timeblock{Name: "ghost", Blocks: []model.Block{{Start: "x", Length: 1}}},
		model.Timeblock{Name: "back", Blocks: []model.Block{{Start: "t05", Length: 1}, {Start: "t01", Length: 1}}},
	)
	cases := []struct {
		name     string
		bindings []model.PeriodBinding
		want     error
	}{
		{"none", nil, ErrDisconnectedTimeline},
		{"unknown", []model.PeriodBinding{{Period: "p", Timeblock: "nope"}}, ErrUnknownTimeblock},
		{"range", []model.PeriodBinding{{Period: "p", Timeblock: "late"}}, ErrBlockOutOfRange},
		{"start", []model.PeriodBinding{{Period: "p", Timeblock: "ghost"}}, ErrStepNotFound},
		{"order", []model.PeriodBinding{{Period: "p", Timeblock: "back"}}, ErrNonMonotonic},
	}
	for _, tc := range cases {
		_, err := Compose(reg, "s", tc.bindings)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, err)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: expected configuration error", tc.name)
		}
	}
}

func TestComposeUnboundTimeblock(t *testing.T) {
	reg, err := NewRegistry([]model.Timeline{uniformTimeline("y", 3)},
		[]model.Timeblock{{Name: "free", Blocks: []model.Block{{Start: "t00", Length: 1}}}}, nil)
	require.NoError(t, err)
	_, err = Compose(reg, "s", []model.PeriodBinding{{Period: "p", Timeblock: "free"}})
	assert.ErrorIs(t, err, ErrUnboundTimeblock)
}

func TestNewRegistryValidation(t *testing.T) {
	bad := model.Timeline{Name: "y", Steps: []model.Step{{ID: "a", Duration: 1}, {ID: "a", Duration: 1}}}
	if _, err := NewRegistry([]model.Timeline{bad}, nil, nil); !errors.Is(err, ErrDuplicateStep) {
		t.Fatalf("expected duplicate step error got %v", err)
	}
	zero := model.Timeline{Name: "y", Steps: []model.Step{{ID: "a", Duration: 0}}}
	if _, err := NewRegistry([]model.Timeline{zero}, nil, nil); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected duration error got %v", err)
	}
	if _, err := NewRegistry(nil, nil, map[string]string{"tb": "missing"}); !errors.Is(err, ErrUnknownTimeline) {
		t.Fatalf("expected unknown timeline got %v", err)
	}
	neg := model.Timeblock{Name: "tb", Blocks: []model.Block{{Start: "a", Length: -1}}}
	if _, err := NewRegistry(nil, []model.Timeblock{neg}, nil); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected length error got %v", err)
	}
}

// follow walks (previous_period, previous_within_solve) links starting at the
// first entry and returns the number of steps needed to get back.
func follow(t *testing.T, jumps []model.StepJump) int {
	t.Helper()
	byKey := make(map[[2]string]model.StepJump, len(jumps))
	for _, j := range jumps {
		byKey[[2]string{j.Period, j.Step}] = j
	}
	start := jumps[0]
	cur := start
	for n := 1; n <= len(jumps); n++ {
		next, ok := byKey[[2]string{cur.PreviousPeriod, cur.PreviousWithinSolve}]
		if !ok {
			t.Fatalf("dangling predecessor %s/%s", cur.PreviousPeriod, cur.PreviousWithinSolve)
		}
		if next.Period == start.Period && next.Step == start.Step {
			return n
		}
		cur = next
	}
	return -1
}

func TestBuildJumpsSingleCycle(t *testing.T) {
	reg := newTestRegistry(t,
		model.Timeblock{Name: "rep", Blocks: []model.Block{{Start: "t00", Length: 3}, {Start: "t06", Length: 2}}},
		model.Timeblock{Name: "full", Blocks: []model.Block{{Start: "t00", Length: 4}}},
	)
	at, err := Compose(reg, "s", []model.PeriodBinding{{Period: "p1", Timeblock: "rep"}, {Period: "p2", Timeblock: "full"}})
	require.NoError(t, err)
	jumps := BuildJumps(at)
	if len(jumps) != at.Len() {
		t.Fatalf("expected %d entries got %d", at.Len(), len(jumps))
	}
	if n := follow(t, jumps); n != len(jumps) {
		t.Fatalf("expected a single cycle of %d got %d", len(jumps), n)
	}
	flat := at.Flatten()
	for i, j := range jumps {
		if j.Period != flat[i].Period || j.Step != flat[i].Step {
			t.Fatalf("entry %d out of order: %+v", i, j)
		}
		if j.Jump < 0 {
			t.Fatalf("negative jump at %d", i)
		}
	}
}

func TestBuildJumpsBlocks(t *testing.T) {
	reg := newTestRegistry(t,
		model.Timeblock{Name: "rep", Blocks: []model.Block{{Start: "t00", Length: 3}, {Start: "t06", Length: 2}}},
	)
	at, err := Compose(reg, "s", []model.PeriodBinding{{Period: "p1", Timeblock: "rep"}})
	require.NoError(t, err)
	got := BuildJumps(at)
	want := []model.StepJump{
		{Period: "p1", Step: "t00", Previous: "t07", PreviousWithinBlock: "t02", PreviousPeriod: "p1", PreviousWithinSolve: "t07", Jump: 1},
		{Period: "p1", Step: "t01", Previous: "t00", PreviousWithinBlock: "t00", PreviousPeriod: "p1", PreviousWithinSolve: "t00", Jump: 1},
		{Period: "p1", Step: "t02", Previous: "t01", PreviousWithinBlock: "t01", PreviousPeriod: "p1", PreviousWithinSolve: "t01", Jump: 1},
		{Period: "p1", Step: "t06", Previous: "t02", PreviousWithinBlock: "t07", PreviousPeriod: "p1", PreviousWithinSolve: "t02", Jump: 4},
		{Period: "p1", Step: "t07", Previous: "t06", PreviousWithinBlock: "t06", PreviousPeriod: "p1", PreviousWithinSolve: "t06", Jump: 1},
	}
	assert.Equal(t, want, got)
}

func TestBuildJumpsAcrossPeriods(t *testing.T) {
	reg := newTestRegistry(t,
		model.Timeblock{Name: "first", Blocks: []model.Block{{Start: "t00", Length: 2}}},
		model.Timeblock{Name: "second", Blocks: []model.Block{{Start: "t05", Length: 2}}},
	)
	at, err := Compose(reg, "s", []model.PeriodBinding{{Period: "p1", Timeblock: "first"}, {Period: "p2", Timeblock: "second"}})
	require.NoError(t, err)
	got := BuildJumps(at)
	// p2 starts after p1 on the same timeline.
	assert.Equal(t, "p1", got[2].PreviousPeriod)
	assert.Equal(t, "t01", got[2].PreviousWithinSolve)
	assert.Equal(t, 4, got[2].Jump)
	// p1 wraps to the end of p2.
	assert.Equal(t, "p2", got[0].PreviousPeriod)
	assert.Equal(t, "t06", got[0].PreviousWithinSolve)
	assert.Equal(t, 1, got[0].Jump)
}

func twoTimelineRegistry(t *testing.T) *Registry {
	t.Helper()
	var tls []model.Timeline
	for _, name := range []string{"a", "b"} {
		tl := model.Timeline{Name: name}
		for i := 0; i < 5; i++ {
			tl.Steps = append(tl.Steps, model.Step{ID: fmt.Sprintf("%s%d", name, i), Duration: 1})
		}
		tls = append(tls, tl)
	}
	reg, err := NewRegistry(tls, []model.Timeblock{
		{Name: "ta", Blocks: []model.Block{{Start: "a3", Length: 2}}},
		{Name: "tb", Blocks: []model.Block{{Start: "b0", Length: 2}}},
		{Name: "ta0", Blocks: []model.Block{{Start: "a0", Length: 2}}},
		{Name: "tb3", Blocks: []model.Block{{Start: "b3", Length: 2}}},
	}, map[string]string{"ta": "a", "tb": "b", "ta0": "a", "tb3": "b"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestComposeRejectsFallingIndexAcrossTimelines(t *testing.T) {
	reg := twoTimelineRegistry(t)
	_, err := Compose(reg, "s", []model.PeriodBinding{{Period: "p", Timeblock: "ta"}, {Period: "p", Timeblock: "tb"}})
	if !errors.Is(err, ErrNonMonotonic) {
		t.Fatalf("expected non monotonic error got %v", err)
	}
}

func TestBuildJumpsTimelineSwitchStartsBlock(t *testing.T) {
	reg := twoTimelineRegistry(t)
	at, err := Compose(reg, "s", []model.PeriodBinding{{Period: "p", Timeblock: "ta0"}, {Period: "p", Timeblock: "tb3"}})
	require.NoError(t, err)
	got := BuildJumps(at)
	want := []model.StepJump{
		{Period: "p", Step: "a0", Previous: "b4", PreviousWithinBlock: "a1", PreviousPeriod: "p", PreviousWithinSolve: "b4", Jump: 1},
		{Period: "p", Step: "a1", Previous: "a0", PreviousWithinBlock: "a0", PreviousPeriod: "p", PreviousWithinSolve: "a0", Jump: 1},
		{Period: "p", Step: "b3", Previous: "a1", PreviousWithinBlock: "b4", PreviousPeriod: "p", PreviousWithinSolve: "a1", Jump: 1},
		{Period: "p", Step: "b4", Previous: "b3", PreviousWithinBlock: "b3", PreviousPeriod: "p", PreviousWithinSolve: "b3", Jump: 1},
	}
	assert.Equal(t, want, got)
	if n := follow(t, got); n != len(got) {
		t.Fatalf("expected a single cycle of %d got %d", len(got), n)
	}
}
