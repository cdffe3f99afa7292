// ABOUTME: Tests for playback schedule construction
// ABOUTME: Verifies gaplessness, ordering, and missing-clip handling
package splicer

import (
	"testing"
	"time"

	"github.com/Storyglow-Audio/narrate-go/internal/audio"
)

// testBuffer returns a buffer lasting ms milliseconds at 1000 frames/sec so
// one frame equals one millisecond.
func testBuffer(ms int) *audio.Buffer {
	return &audio.Buffer{
		Samples: make([]int32, ms),
		Format:  audio.Format{SampleRate: 1000, Channels: 1, BitDepth: 16},
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// checkContiguous verifies zero gap and zero overlap between consecutive
// nodes and that the total equals the sum of node durations.
func checkContiguous(t *testing.T, nodes []ScheduledNode, total time.Duration) {
	t.Helper()

	var sum time.Duration
	for i, n := range nodes {
		if i > 0 && n.StartAt != nodes[i-1].End() {
			t.Errorf("node %d starts at %v, previous ends at %v", i, n.StartAt, nodes[i-1].End())
		}
		sum += n.Duration
	}
	if sum != total {
		t.Errorf("node durations sum to %v, total is %v", sum, total)
	}
}

func TestBuildScheduleOrderPreservation(t *testing.T) {
	base := testBuffer(1000)
	clips := map[Placeholder]*audio.Buffer{
		PlaceholderChild: testBuffer(100),
		PlaceholderPet:   testBuffer(150),
	}
	points := []SplicePoint{
		{TimestampMs: 500, Placeholder: PlaceholderPet},
		{TimestampMs: 200, Placeholder: PlaceholderChild},
	}

	nodes, total := BuildSchedule(base, points, clips)

	want := []struct {
		kind     NodeKind
		offset   time.Duration
		duration time.Duration
	}{
		{NodeBase, 0, ms(200)},
		{NodeClip, 0, ms(100)},
		{NodeBase, ms(200), ms(300)},
		{NodeClip, 0, ms(150)},
		{NodeBase, ms(500), ms(500)},
	}

	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(nodes))
	}
	for i, w := range want {
		if nodes[i].Kind != w.kind {
			t.Errorf("node %d: expected kind %d, got %d", i, w.kind, nodes[i].Kind)
		}
		if nodes[i].Offset != w.offset {
			t.Errorf("node %d: expected offset %v, got %v", i, w.offset, nodes[i].Offset)
		}
		if nodes[i].Duration != w.duration {
			t.Errorf("node %d: expected duration %v, got %v", i, w.duration, nodes[i].Duration)
		}
	}

	if nodes[1].Placeholder != PlaceholderChild {
		t.Error("first insertion should be the child clip")
	}
	if nodes[3].Placeholder != PlaceholderPet {
		t.Error("second insertion should be the pet clip")
	}

	// Total = base + both clips
	if total != ms(1000+100+150) {
		t.Errorf("expected total %v, got %v", ms(1250), total)
	}
	checkContiguous(t, nodes, total)
}

func TestBuildScheduleMissingClipSkipped(t *testing.T) {
	base := testBuffer(1000)
	points := []SplicePoint{
		{TimestampMs: 300, Placeholder: PlaceholderChild},
	}

	// No child clip loaded
	nodes, total := BuildSchedule(base, points, nil)

	for _, n := range nodes {
		if n.Kind == NodeClip {
			t.Fatal("expected no clip nodes when clip is missing")
		}
	}
	if total != ms(1000) {
		t.Errorf("expected total %v, got %v", ms(1000), total)
	}
	checkContiguous(t, nodes, total)

	// The base plays through the skipped timestamp as adjoining slices
	var covered time.Duration
	for _, n := range nodes {
		covered += n.Duration
	}
	if covered != base.Duration() {
		t.Errorf("base coverage %v, expected %v", covered, base.Duration())
	}
}

func TestBuildScheduleNoPoints(t *testing.T) {
	base := testBuffer(800)

	nodes, total := BuildSchedule(base, nil, nil)

	if len(nodes) != 1 {
		t.Fatalf("expected single base node, got %d", len(nodes))
	}
	if nodes[0].Kind != NodeBase || nodes[0].Offset != 0 || nodes[0].Duration != ms(800) {
		t.Errorf("unexpected node: %+v", nodes[0])
	}
	if total != ms(800) {
		t.Errorf("expected total %v, got %v", ms(800), total)
	}
}

func TestBuildScheduleDuplicateTimestamps(t *testing.T) {
	base := testBuffer(600)
	clips := map[Placeholder]*audio.Buffer{
		PlaceholderChild: testBuffer(50),
		PlaceholderPet:   testBuffer(70),
	}
	points := []SplicePoint{
		{TimestampMs: 250, Placeholder: PlaceholderChild},
		{TimestampMs: 250, Placeholder: PlaceholderPet},
	}

	nodes, total := BuildSchedule(base, points, clips)

	// base[0,250) -> child -> pet (back to back, list order) -> base[250,600)
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(nodes))
	}
	if nodes[1].Kind != NodeClip || nodes[1].Placeholder != PlaceholderChild {
		t.Error("expected child clip first at shared timestamp")
	}
	if nodes[2].Kind != NodeClip || nodes[2].Placeholder != PlaceholderPet {
		t.Error("expected pet clip second at shared timestamp")
	}
	checkContiguous(t, nodes, total)
}

func TestBuildSchedulePointAtZero(t *testing.T) {
	base := testBuffer(400)
	clips := map[Placeholder]*audio.Buffer{
		PlaceholderChild: testBuffer(100),
	}
	points := []SplicePoint{{TimestampMs: 0, Placeholder: PlaceholderChild}}

	nodes, total := BuildSchedule(base, points, clips)

	if nodes[0].Kind != NodeClip {
		t.Error("expected clip first for a zero-timestamp point")
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	checkContiguous(t, nodes, total)
}

func TestBuildSchedulePointBeyondEnd(t *testing.T) {
	base := testBuffer(300)
	clips := map[Placeholder]*audio.Buffer{
		PlaceholderPet: testBuffer(80),
	}
	points := []SplicePoint{{TimestampMs: 9000, Placeholder: PlaceholderPet}}

	nodes, total := BuildSchedule(base, points, clips)

	// Whole base, then the clip; no trailing slice
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].Kind != NodeBase || nodes[0].Duration != ms(300) {
		t.Errorf("unexpected first node: %+v", nodes[0])
	}
	if nodes[1].Kind != NodeClip {
		t.Errorf("unexpected second node: %+v", nodes[1])
	}
	if total != ms(380) {
		t.Errorf("expected total %v, got %v", ms(380), total)
	}
	checkContiguous(t, nodes, total)
}

func TestBuildScheduleEmptyBase(t *testing.T) {
	base := testBuffer(0)

	nodes, total := BuildSchedule(base, nil, nil)
	if len(nodes) != 0 || total != 0 {
		t.Errorf("expected empty schedule, got %d nodes, total %v", len(nodes), total)
	}
}
