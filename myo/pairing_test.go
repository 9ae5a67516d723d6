package myo

import (
	"testing"

	"seedhammer.com/myodriver/bgapi"
)

func TestPairerAlignsCloseSamples(t *testing.T) {
	p := NewPairer()
	var paired []PairedSample
	p.OnPaired(func(ps PairedSample) { paired = append(paired, ps) })

	p.Add(0, bgapi.Sample{Timestamp: 1.000, Sequence: 10})
	if len(paired) != 0 {
		t.Fatalf("paired early with only one side present: %v", paired)
	}
	p.Add(1, bgapi.Sample{Timestamp: 1.010, Sequence: 20}) // 10ms apart, within threshold

	if len(paired) != 1 {
		t.Fatalf("got %d pairs, want 1", len(paired))
	}
	if paired[0].A.Sequence != 10 || paired[0].B.Sequence != 20 {
		t.Fatalf("pair = %+v", paired[0])
	}
}

func TestPairerRejectsFarApartSamples(t *testing.T) {
	p := NewPairer()
	var paired []PairedSample
	p.OnPaired(func(ps PairedSample) { paired = append(paired, ps) })

	p.Add(0, bgapi.Sample{Timestamp: 1.000})
	p.Add(1, bgapi.Sample{Timestamp: 1.100}) // 100ms apart, over threshold

	if len(paired) != 0 {
		t.Fatalf("paired samples 100ms apart: %v", paired)
	}
}

func TestPairerNewerSampleReplacesUnmatched(t *testing.T) {
	p := NewPairer()
	var paired []PairedSample
	p.OnPaired(func(ps PairedSample) { paired = append(paired, ps) })

	p.Add(0, bgapi.Sample{Timestamp: 1.000, Sequence: 1})
	p.Add(0, bgapi.Sample{Timestamp: 1.050, Sequence: 2}) // replaces the pending sample for side 0
	p.Add(1, bgapi.Sample{Timestamp: 1.055, Sequence: 3})

	if len(paired) != 1 {
		t.Fatalf("got %d pairs, want 1", len(paired))
	}
	if paired[0].A.Sequence != 2 {
		t.Fatalf("paired stale sample %+v, want the newer one that replaced it (sequence 2)", paired[0].A)
	}
}
