// Package window implements the time-bounded sample buffer used to
// detect rapid outdoor temperature changes.
package window

import (
	"time"
)

// Sample is a single outdoor temperature observation.
type Sample struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
}

// Window keeps a chronologically ordered run of samples no older than a
// fixed span. Appends must arrive in non-decreasing time order; eviction
// only ever removes from the oldest end.
type Window struct {
	span    time.Duration
	samples []Sample
}

// New returns an empty window spanning the given number of minutes.
func New(windowMinutes int) *Window {
	return &Window{span: time.Duration(windowMinutes) * time.Minute}
}

// Append adds a sample and evicts every sample strictly older than
// now minus the window span.
func (w *Window) Append(now time.Time, temperature float64) {
	w.samples = append(w.samples, Sample{Time: now, Temperature: temperature})
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.samples) && w.samples[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0], w.samples[i:]...)
	}
}

// HasSignificantRiseAndDrop reports whether the window contains a rise
// to a peak of at least riseThreshold followed by a drop of at least
// dropThreshold. The hinge is the earliest maximum-value sample; a peak
// at either end of the window leaves no room for a rise or a drop and
// never matches.
func (w *Window) HasSignificantRiseAndDrop(riseThreshold, dropThreshold float64) bool {
	if len(w.samples) < 3 {
		return false
	}

	maxIdx := 0
	for i, s := range w.samples {
		if s.Temperature > w.samples[maxIdx].Temperature {
			maxIdx = i
		}
	}
	if maxIdx == 0 || maxIdx == len(w.samples)-1 {
		return false
	}
	maxVal := w.samples[maxIdx].Temperature

	minBefore := w.samples[0].Temperature
	for _, s := range w.samples[:maxIdx] {
		if s.Temperature < minBefore {
			minBefore = s.Temperature
		}
	}
	minAfter := w.samples[maxIdx+1].Temperature
	for _, s := range w.samples[maxIdx+1:] {
		if s.Temperature < minAfter {
			minAfter = s.Temperature
		}
	}

	return maxVal-minBefore >= riseThreshold && maxVal-minAfter >= dropThreshold
}

// WithinSpan reports whether ts falls between the oldest and newest
// retained sample, inclusive. An empty window contains nothing.
func (w *Window) WithinSpan(ts time.Time) bool {
	if len(w.samples) == 0 {
		return false
	}
	return !ts.Before(w.samples[0].Time) && !ts.After(w.samples[len(w.samples)-1].Time)
}

// Samples returns a copy of the retained samples in chronological order.
func (w *Window) Samples() []Sample {
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Restore replaces the window contents with previously persisted
// samples, which must already be in chronological order.
func (w *Window) Restore(samples []Sample) {
	w.samples = append(w.samples[:0:0], samples...)
}

// Len returns the number of retained samples.
func (w *Window) Len() int { return len(w.samples) }
