package domain

import (
	"encoding/json"
	"fmt"
)

// ScoreWindowCapacity is the number of score ratios a ScoreWindow retains.
const ScoreWindowCapacity = 10

// ScoreWindow is a fixed-capacity circular buffer of per-attempt score ratios.
// Once full, each Push evicts the oldest entry. The zero value is an empty window.
type ScoreWindow struct {
	buf   [ScoreWindowCapacity]float64
	start int // index of the oldest entry
	count int
}

// NewScoreWindow builds a window from chronologically ordered values.
// Only the most recent ScoreWindowCapacity values are kept.
func NewScoreWindow(values ...float64) ScoreWindow {
	var w ScoreWindow
	for _, v := range values {
		w.Push(v)
	}
	return w
}

// Push appends a ratio, evicting the oldest one when the window is full.
func (w *ScoreWindow) Push(v float64) {
	if w.count < ScoreWindowCapacity {
		w.buf[(w.start+w.count)%ScoreWindowCapacity] = v
		w.count++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % ScoreWindowCapacity
}

// Len returns the number of ratios held.
func (w ScoreWindow) Len() int {
	return w.count
}

// Values returns a chronological copy of the ratios, oldest first.
func (w ScoreWindow) Values() []float64 {
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.start+i)%ScoreWindowCapacity]
	}
	return out
}

// Last returns the n most recent ratios in chronological order.
// If fewer than n are held, all of them are returned.
func (w ScoreWindow) Last(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n > w.count {
		n = w.count
	}
	out := make([]float64, n)
	offset := w.count - n
	for i := 0; i < n; i++ {
		out[i] = w.buf[(w.start+offset+i)%ScoreWindowCapacity]
	}
	return out
}

// Mean returns the mean of all held ratios, or 0 for an empty window.
func (w ScoreWindow) Mean() float64 {
	return mean(w.Values())
}

// MeanOfLast returns the mean of the n most recent ratios, or 0 for an empty window.
func (w ScoreWindow) MeanOfLast(n int) float64 {
	return mean(w.Last(n))
}

// MarshalJSON encodes the window as a chronological array.
func (w ScoreWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Values())
}

// UnmarshalJSON decodes a chronological array into the window.
func (w *ScoreWindow) UnmarshalJSON(data []byte) error {
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("%w: score window: %v", ErrInvalidFormat, err)
	}
	*w = NewScoreWindow(values...)
	return nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
