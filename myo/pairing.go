package myo

import "seedhammer.com/myodriver/bgapi"

// copyThreshold is how close two samples from different armbands must
// land, in seconds, to be considered the same instant. Myos are not
// clock-synced with each other; their independent 200Hz counters
// drift apart, so exact timestamp equality never happens in practice.
const copyThreshold = 0.030

// PairedSample is one aligned reading from each of two armbands worn
// together (left/right), emitted once both sides have a sample within
// copyThreshold of each other.
type PairedSample struct {
	A, B bgapi.Sample
}

// Pairer aligns the sample streams of exactly two controllers by
// timestamp. It holds at most the latest unmatched sample from each
// side; a later sample from the same side silently replaces an
// unmatched one, since only the freshest reading is ever worth
// pairing against.
type Pairer struct {
	pending  [2]*bgapi.Sample
	onPaired []func(PairedSample)
}

// NewPairer returns an empty Pairer.
func NewPairer() *Pairer {
	return &Pairer{}
}

// OnPaired registers fn to run whenever a new aligned pair is formed.
func (p *Pairer) OnPaired(fn func(PairedSample)) {
	p.onPaired = append(p.onPaired, fn)
}

// Attach wires side (0 or 1) of the pair to c's joint-sample stream.
func (p *Pairer) Attach(side int, c *Controller) {
	c.OnSample(func(s bgapi.Sample) {
		p.Add(side, s)
	})
}

// Add feeds one side's newest sample into the pairer. If the other
// side already holds a sample within copyThreshold, a PairedSample
// fires immediately and both pending slots are cleared; otherwise s
// becomes the new pending sample for side, discarding any previous
// unmatched one.
func (p *Pairer) Add(side int, s bgapi.Sample) {
	other := 1 - side
	if o := p.pending[other]; o != nil {
		diff := s.Timestamp - o.Timestamp
		if diff < 0 {
			diff = -diff
		}
		if diff <= copyThreshold {
			var pair PairedSample
			if side == 0 {
				pair = PairedSample{A: s, B: *o}
			} else {
				pair = PairedSample{A: *o, B: s}
			}
			p.pending[0] = nil
			p.pending[1] = nil
			for _, fn := range p.onPaired {
				fn(pair)
			}
			return
		}
	}
	sCopy := s
	p.pending[side] = &sCopy
}
