package blink

// Plan is the frame schedule of a simulation.
type Plan struct {
	Frames         int
	Blinks         int // floor(frames * blinks per frame), the table capacity
	FramesPerBlink int // frame cadence, 0 when no blink is scheduled
}

// Slot is one scheduled event.
type Slot struct {
	ID    int
	Frame int
}

// Schedule builds the plan for the given frame count and expected number of
// blinks.
func Schedule(frames, blinks int) Plan {
	p := Plan{Frames: frames, Blinks: blinks}
	if blinks > 0 && frames > 0 {
		p.FramesPerBlink = frames / blinks
	}
	if p.FramesPerBlink == 0 {
		p.Blinks = 0
	}
	return p
}

// Slots enumerates the scheduled (id, frame) pairs: frames 1, 1+cadence, ...
// up to Frames, ids counting from 1, never more than Blinks events.
func (p Plan) Slots() []Slot {
	if p.Blinks <= 0 || p.FramesPerBlink <= 0 {
		return nil
	}
	slots := make([]Slot, 0, p.Blinks)
	id := 1
	for frame := 1; frame <= p.Frames && id <= p.Blinks; frame += p.FramesPerBlink {
		slots = append(slots, Slot{ID: id, Frame: frame})
		id++
	}
	return slots
}
