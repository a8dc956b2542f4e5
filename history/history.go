// Package history records the loss trajectory of a training run and persists
// it in a pluggable store.
package history

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Epoch holds the loss of every optimizer step of one epoch
type Epoch struct {
	Losses []float64 `json:"losses"`
}

// History is the loss of every optimizer step of a run, grouped by epoch
type History struct {
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`
	Epochs  []Epoch   `json:"epochs"`
}

// New creates an empty history. An empty runID is replaced by a random one.
func New(runID string) *History {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &History{RunID: runID, Started: time.Now().UTC()}
}

// StartEpoch opens a new epoch; later Record calls append to it
func (h *History) StartEpoch() {
	h.Epochs = append(h.Epochs, Epoch{})
}

// Record appends the loss of one step to the current epoch
func (h *History) Record(loss float64) {
	if len(h.Epochs) == 0 {
		h.StartEpoch()
	}
	e := &h.Epochs[len(h.Epochs)-1]
	e.Losses = append(e.Losses, loss)
}

// Steps returns the number of recorded steps
func (h *History) Steps() (n int) {
	for _, e := range h.Epochs {
		n += len(e.Losses)
	}
	return
}

// Losses returns every recorded loss in step order
func (h *History) Losses() []float64 {
	o := make([]float64, 0, h.Steps())
	for _, e := range h.Epochs {
		o = append(o, e.Losses...)
	}
	return o
}

// EpochMean returns the mean loss of epoch e, NaN when it has no steps
func (h *History) EpochMean(e int) float64 {
	if e < 0 || e >= len(h.Epochs) || len(h.Epochs[e].Losses) == 0 {
		return math.NaN()
	}
	return stat.Mean(h.Epochs[e].Losses, nil)
}

// Final returns the mean loss of the last epoch
func (h *History) Final() float64 {
	return h.EpochMean(len(h.Epochs) - 1)
}

// Clone returns a deep copy of h
func (h *History) Clone() *History {
	o := &History{RunID: h.RunID, Started: h.Started, Epochs: make([]Epoch, len(h.Epochs))}
	for i, e := range h.Epochs {
		o.Epochs[i].Losses = append([]float64(nil), e.Losses...)
	}
	return o
}
