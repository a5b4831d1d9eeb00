package service

import (
	"testing"
	"time"

	"fieldsync/modules/availability/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func slot(id string, start, end time.Time) dto.AppointmentSlot {
	return dto.AppointmentSlot{ID: id, StartTime: start, EndTime: end, TeamID: "team-1"}
}

// TestDetectOverlaps_DisjointSlots: existing [09:00,10:00], candidate
// [10:00,11:00], buffer 0 -> touching boundaries do not conflict.
func TestDetectOverlaps_DisjointSlots(t *testing.T) {
	engine := NewOverlapEngine()

	result := engine.DetectOverlaps(
		[]dto.AppointmentSlot{slot("a", ts(9, 0), ts(10, 0))},
		ts(10, 0), ts(11, 0), 0)

	assert.False(t, result.HasConflict)
	assert.Empty(t, result.Conflicts)
}

// TestDetectOverlaps_AdjacencyWithBuffer: the same intervals with a
// 15-minute buffer conflict and classify as adjacent.
func TestDetectOverlaps_AdjacencyWithBuffer(t *testing.T) {
	engine := NewOverlapEngine()

	result := engine.DetectOverlaps(
		[]dto.AppointmentSlot{slot("a", ts(9, 0), ts(10, 0))},
		ts(10, 0), ts(11, 0), 15)

	require.True(t, result.HasConflict)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, dto.OverlapAdjacent, result.Conflicts[0].OverlapType)
}

func TestDetectOverlaps_PartialOverlap(t *testing.T) {
	engine := NewOverlapEngine()

	result := engine.DetectOverlaps(
		[]dto.AppointmentSlot{slot("a", ts(9, 0), ts(10, 0))},
		ts(9, 30), ts(10, 30), 0)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, dto.OverlapPartial, result.Conflicts[0].OverlapType)
	assert.Equal(t, ts(9, 30), result.Conflicts[0].OverlapStart)
	assert.Equal(t, ts(10, 0), result.Conflicts[0].OverlapEnd)
}

// Full containment in both directions classifies as "full".
func TestDetectOverlaps_FullContainment(t *testing.T) {
	engine := NewOverlapEngine()

	// Candidate inside existing.
	result := engine.DetectOverlaps(
		[]dto.AppointmentSlot{slot("a", ts(9, 0), ts(12, 0))},
		ts(10, 0), ts(11, 0), 0)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, dto.OverlapFull, result.Conflicts[0].OverlapType)

	// Existing inside candidate.
	result = engine.DetectOverlaps(
		[]dto.AppointmentSlot{slot("a", ts(10, 0), ts(11, 0))},
		ts(9, 0), ts(12, 0), 0)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, dto.OverlapFull, result.Conflicts[0].OverlapType)
}

// TestDetectOverlaps_Symmetry: swapping the roles of the two intervals
// never changes whether a conflict is reported.
func TestDetectOverlaps_Symmetry(t *testing.T) {
	engine := NewOverlapEngine()

	pairs := []struct {
		aStart, aEnd, bStart, bEnd time.Time
	}{
		{ts(9, 0), ts(10, 0), ts(9, 30), ts(10, 30)},
		{ts(9, 0), ts(10, 0), ts(10, 0), ts(11, 0)},
		{ts(9, 0), ts(10, 0), ts(11, 0), ts(12, 0)},
		{ts(9, 0), ts(12, 0), ts(10, 0), ts(11, 0)},
		{ts(9, 0), ts(9, 0), ts(9, 0), ts(10, 0)},
	}

	for _, buffer := range []int{0, 15} {
		for _, p := range pairs {
			ab := engine.DetectOverlaps([]dto.AppointmentSlot{slot("a", p.aStart, p.aEnd)}, p.bStart, p.bEnd, buffer)
			ba := engine.DetectOverlaps([]dto.AppointmentSlot{slot("b", p.bStart, p.bEnd)}, p.aStart, p.aEnd, buffer)
			assert.Equal(t, ab.HasConflict, ba.HasConflict,
				"asymmetric result for [%v,%v] vs [%v,%v] buffer %d", p.aStart, p.aEnd, p.bStart, p.bEnd, buffer)
		}
	}
}

// TestDetectOverlaps_BufferMonotonicity: growing the buffer never shrinks
// the conflict set.
func TestDetectOverlaps_BufferMonotonicity(t *testing.T) {
	engine := NewOverlapEngine()

	existing := []dto.AppointmentSlot{
		slot("a", ts(8, 0), ts(9, 0)),
		slot("b", ts(10, 15), ts(11, 0)),
		slot("c", ts(13, 0), ts(14, 0)),
	}

	previous := 0
	for _, buffer := range []int{0, 5, 15, 30, 60, 120} {
		result := engine.DetectOverlaps(existing, ts(9, 30), ts(10, 0), buffer)
		assert.GreaterOrEqual(t, len(result.Conflicts), previous, "buffer %d shrank the conflict set", buffer)
		previous = len(result.Conflicts)
	}
}

// Zero-length intervals compare as point containment.
func TestDetectOverlaps_ZeroLengthIntervals(t *testing.T) {
	engine := NewOverlapEngine()

	// Point inside an interval conflicts and is contained.
	result := engine.DetectOverlaps(
		[]dto.AppointmentSlot{slot("a", ts(9, 30), ts(9, 30))},
		ts(9, 0), ts(10, 0), 0)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, dto.OverlapFull, result.Conflicts[0].OverlapType)

	// Point outside does not.
	result = engine.DetectOverlaps(
		[]dto.AppointmentSlot{slot("a", ts(11, 0), ts(11, 0))},
		ts(9, 0), ts(10, 0), 0)
	assert.False(t, result.HasConflict)
}

// Conflict output is ordered by slot start regardless of input order.
func TestDetectOverlaps_DeterministicOrdering(t *testing.T) {
	engine := NewOverlapEngine()

	forward := []dto.AppointmentSlot{
		slot("a", ts(9, 0), ts(10, 0)),
		slot("b", ts(9, 30), ts(10, 30)),
	}
	reversed := []dto.AppointmentSlot{forward[1], forward[0]}

	r1 := engine.DetectOverlaps(forward, ts(9, 0), ts(11, 0), 0)
	r2 := engine.DetectOverlaps(reversed, ts(9, 0), ts(11, 0), 0)
	assert.Equal(t, r1, r2)
}

func TestFindOpenSlots_EmptySchedule(t *testing.T) {
	engine := NewOverlapEngine()

	slots := engine.FindOpenSlots(nil, ts(9, 0), ts(12, 0), 60, 0)

	require.Len(t, slots, 3)
	assert.Equal(t, ts(9, 0), slots[0].StartTime)
	assert.Equal(t, ts(10, 0), slots[0].EndTime)
	assert.Equal(t, ts(11, 0), slots[2].StartTime)
}

func TestFindOpenSlots_AroundBooking(t *testing.T) {
	engine := NewOverlapEngine()

	existing := []dto.AppointmentSlot{slot("a", ts(10, 0), ts(11, 0))}
	slots := engine.FindOpenSlots(existing, ts(9, 0), ts(13, 0), 60, 0)

	require.Len(t, slots, 3)
	assert.Equal(t, ts(9, 0), slots[0].StartTime)
	assert.Equal(t, ts(11, 0), slots[1].StartTime)
	assert.Equal(t, ts(12, 0), slots[2].StartTime)
}

// Buffer keeps suggested slots away from bookings and from each other.
func TestFindOpenSlots_RespectsBuffer(t *testing.T) {
	engine := NewOverlapEngine()

	existing := []dto.AppointmentSlot{slot("a", ts(10, 0), ts(11, 0))}
	slots := engine.FindOpenSlots(existing, ts(8, 0), ts(13, 0), 60, 30)

	require.Len(t, slots, 2)
	// [08:00,09:00] leaves a 30m gap before the 10:00 booking; 09:30 would not.
	assert.Equal(t, ts(8, 0), slots[0].StartTime)
	// After the booking, the cursor starts at 11:30.
	assert.Equal(t, ts(11, 30), slots[1].StartTime)
	assert.Equal(t, ts(12, 30), slots[1].EndTime)
}

func TestFindOpenSlots_NoRoom(t *testing.T) {
	engine := NewOverlapEngine()

	existing := []dto.AppointmentSlot{slot("a", ts(9, 0), ts(12, 0))}
	slots := engine.FindOpenSlots(existing, ts(9, 0), ts(12, 0), 60, 0)

	assert.Empty(t, slots)
}

func TestFindOpenSlots_InvalidInputs(t *testing.T) {
	engine := NewOverlapEngine()

	assert.Empty(t, engine.FindOpenSlots(nil, ts(12, 0), ts(9, 0), 60, 0))
	assert.Empty(t, engine.FindOpenSlots(nil, ts(9, 0), ts(12, 0), 0, 0))
}
