package service

import (
	"sort"
	"time"

	"fieldsync/modules/availability/dto"
)

// OverlapEngine detects collisions between a candidate interval and booked
// slots. Pure computation: no I/O, inputs are never mutated, and results do
// not depend on input ordering.
type OverlapEngine struct{}

func NewOverlapEngine() *OverlapEngine {
	return &OverlapEngine{}
}

// DetectOverlaps expands the candidate interval by bufferMinutes on both
// ends and reports every booked slot it collides with.
//
// Two intervals conflict iff existingStart < bufferedEnd AND
// existingEnd > bufferedStart. Zero-length intervals compare as
// point-in-interval containment. A buffer of zero disables adjacency
// detection entirely.
func (e *OverlapEngine) DetectOverlaps(existing []dto.AppointmentSlot, candidateStart, candidateEnd time.Time, bufferMinutes int) dto.OverlapResult {
	buffer := time.Duration(bufferMinutes) * time.Minute
	bufferedStart := candidateStart.Add(-buffer)
	bufferedEnd := candidateEnd.Add(buffer)

	result := dto.OverlapResult{Conflicts: []dto.SlotConflict{}}

	for _, slot := range existing {
		if !intervalsCollide(slot.StartTime, slot.EndTime, bufferedStart, bufferedEnd) {
			continue
		}

		overlapStart := maxTime(slot.StartTime, bufferedStart)
		overlapEnd := minTime(slot.EndTime, bufferedEnd)

		result.Conflicts = append(result.Conflicts, dto.SlotConflict{
			Slot:         slot,
			OverlapType:  classifyOverlap(slot.StartTime, slot.EndTime, candidateStart, candidateEnd, buffer),
			OverlapStart: overlapStart,
			OverlapEnd:   overlapEnd,
		})
	}

	// Deterministic output regardless of input ordering.
	sort.SliceStable(result.Conflicts, func(i, j int) bool {
		a, b := result.Conflicts[i], result.Conflicts[j]
		if !a.Slot.StartTime.Equal(b.Slot.StartTime) {
			return a.Slot.StartTime.Before(b.Slot.StartTime)
		}
		return a.Slot.ID < b.Slot.ID
	})

	result.HasConflict = len(result.Conflicts) > 0
	return result
}

// FindOpenSlots greedily fills the gaps between bookings (including before
// the first and after the last) with back-to-back slots of the requested
// duration, separated by the buffer. Only slots fully inside
// [rangeStart, rangeEnd] are returned.
func (e *OverlapEngine) FindOpenSlots(existing []dto.AppointmentSlot, rangeStart, rangeEnd time.Time, slotDurationMinutes, bufferMinutes int) []dto.OpenSlot {
	if slotDurationMinutes <= 0 || !rangeStart.Before(rangeEnd) {
		return []dto.OpenSlot{}
	}

	duration := time.Duration(slotDurationMinutes) * time.Minute
	buffer := time.Duration(bufferMinutes) * time.Minute

	sorted := make([]dto.AppointmentSlot, len(existing))
	copy(sorted, existing)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	slots := []dto.OpenSlot{}
	cursor := rangeStart

	fill := func(gapEnd time.Time) {
		if gapEnd.After(rangeEnd) {
			gapEnd = rangeEnd
		}
		for !cursor.Add(duration).After(gapEnd) {
			slots = append(slots, dto.OpenSlot{
				StartTime: cursor,
				EndTime:   cursor.Add(duration),
			})
			cursor = cursor.Add(duration + buffer)
		}
	}

	for _, booking := range sorted {
		fill(booking.StartTime.Add(-buffer))

		next := booking.EndTime.Add(buffer)
		if next.After(cursor) {
			cursor = next
		}
	}
	fill(rangeEnd)

	return slots
}

// intervalsCollide applies the strict-inequality conflict predicate, with
// zero-length intervals treated as point-in-interval containment.
func intervalsCollide(existStart, existEnd, candStart, candEnd time.Time) bool {
	existPoint := existStart.Equal(existEnd)
	candPoint := candStart.Equal(candEnd)

	switch {
	case existPoint && candPoint:
		return existStart.Equal(candStart)
	case existPoint:
		return !existStart.Before(candStart) && !existStart.After(candEnd)
	case candPoint:
		return !candStart.Before(existStart) && !candStart.After(existEnd)
	default:
		return existStart.Before(candEnd) && existEnd.After(candStart)
	}
}

// classifyOverlap, in priority order: full when either interval entirely
// contains the other, adjacent when the unbuffered intervals are disjoint
// and only the buffer made them collide, partial otherwise.
func classifyOverlap(existStart, existEnd, candStart, candEnd time.Time, buffer time.Duration) dto.OverlapType {
	candInsideExist := !candStart.Before(existStart) && !candEnd.After(existEnd)
	existInsideCand := !existStart.Before(candStart) && !existEnd.After(candEnd)
	if candInsideExist || existInsideCand {
		return dto.OverlapFull
	}

	disjointUnbuffered := !existStart.Before(candEnd) || !existEnd.After(candStart)
	if buffer > 0 && disjointUnbuffered {
		return dto.OverlapAdjacent
	}

	return dto.OverlapPartial
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
