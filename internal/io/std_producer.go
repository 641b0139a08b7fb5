package io

import (
	"sync"
)

// StandardProducer submits unit indices rather than units so that consumers address a shared,
// read-only unit slice
type StandardProducer struct {
	indices []int
}

func NewStandardProducer(indices []int) *StandardProducer {
	return &StandardProducer{
		indices: indices,
	}
}

// Submits every unit index to the work channel and closes it when all work is submitted
func (p *StandardProducer) Produce(work chan<- int, wg *sync.WaitGroup) {
	for _, i := range p.indices {
		work <- i
	}
	close(work)
	wg.Done()
}
