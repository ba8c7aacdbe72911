package pipeline

import (
	"fmt"
	"sync"
)

// Processor is a single pass-through stage of the chain. Process receives the
// current record and returns the record to forward to the next stage. A stage
// returning an error is skipped: the chain keeps the record it held before the
// stage ran and continues. Processors must never mutate the record into an
// undeliverable state; event delivery always wins over enrichment.
type Processor interface {
	Name() string
	Process(rec Record) (Record, error)
}

// ErrorFunc is invoked when a stage fails or panics. It must be cheap and must
// not feed back into the same chain.
type ErrorFunc func(stage string, err error)

// Chain is an ordered list of processors applied to every event record.
// Append/Insert are expected during setup; Run may be called concurrently from
// any number of producer threads afterwards.
type Chain struct {
	mu      sync.RWMutex
	stages  []Processor
	onError ErrorFunc
}

// NewChain creates an empty chain. onError may be nil.
func NewChain(onError ErrorFunc) *Chain {
	return &Chain{onError: onError}
}

// Append adds a stage at the end of the chain.
func (c *Chain) Append(p Processor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages = append(c.stages, p)
}

// Insert adds a stage at the given position, clamped to the chain bounds.
func (c *Chain) Insert(idx int, p Processor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx < 0 {
		idx = 0
	}
	if idx > len(c.stages) {
		idx = len(c.stages)
	}
	c.stages = append(c.stages, nil)
	copy(c.stages[idx+1:], c.stages[idx:])
	c.stages[idx] = p
}

// Stages returns a snapshot of the current stage names, in order.
func (c *Chain) Stages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.stages))
	for i, p := range c.stages {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of stages.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stages)
}

// Run applies every stage to the record in order and returns the final record.
// A failing or panicking stage is reported through onError and skipped; the
// record from before that stage is forwarded. Run never fails and never
// returns nil for a non-nil input.
func (c *Chain) Run(rec Record) Record {
	c.mu.RLock()
	stages := c.stages
	c.mu.RUnlock()

	for _, p := range stages {
		out, err := c.runStage(p, rec)
		if err != nil {
			if c.onError != nil {
				c.onError(p.Name(), err)
			}
			continue
		}
		if out != nil {
			rec = out
		}
	}
	return rec
}

// runStage executes one stage with panic isolation.
func (c *Chain) runStage(p Processor, rec Record) (out Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("stage %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Process(rec)
}
