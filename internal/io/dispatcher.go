package io

import (
	"context"
	"fmt"
	stdio "io"
	"sync"
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/tools"
	"github.com/golang/glog"
	"github.com/schollz/progressbar/v3"
)

// UnitRecorder receives the outcome of every unit, successful or not
type UnitRecorder interface {
	RecordUnit(unit tiler.ConversionUnit, result converters.ConversionResult, err error, elapsed time.Duration)
}

type Dispatcher struct {
	tileConverter converters.TileConverter
	numConsumers  int
	progress      stdio.Writer
	recorder      UnitRecorder
}

// NewDispatcher builds a dispatcher running numConsumers conversions at a time. progress may be nil
// to disable the progress bar, recorder may be nil.
func NewDispatcher(tileConverter converters.TileConverter, numConsumers int, progress stdio.Writer, recorder UnitRecorder) *Dispatcher {
	if numConsumers < 1 {
		numConsumers = 1
	}
	if progress == nil {
		progress = stdio.Discard
	}
	return &Dispatcher{
		tileConverter: tileConverter,
		numConsumers:  numConsumers,
		progress:      progress,
		recorder:      recorder,
	}
}

// Dispatch creates the destination folder of every unit, converts them and returns the successful
// results in unit order. Failed units are logged and dropped; the run goes on with the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, units []tiler.ConversionUnit, options CellOptions) []converters.ConversionResult {
	if len(units) == 0 {
		return nil
	}

	bar := progressbar.NewOptions(len(units),
		progressbar.OptionSetWriter(d.progress),
		progressbar.OptionSetDescription("converting cells"),
		progressbar.OptionShowCount(),
	)

	failures := 0
	fail := func(unit tiler.ConversionUnit, err error, elapsed time.Duration) {
		failures++
		glog.Errorf("convert %s failed: %v", unit.Input, err)
		if d.recorder != nil {
			d.recorder.RecordUnit(unit, converters.ConversionResult{}, err, elapsed)
		}
		_ = bar.Add(1)
	}

	pending := make([]int, 0, len(units))
	for i, unit := range units {
		if err := tools.CreateDirectoryIfDoesNotExist(unit.Output); err != nil {
			fail(unit, fmt.Errorf("create %s: %w", unit.Output, err), 0)
			continue
		}
		pending = append(pending, i)
	}

	collected := make([]converters.ConversionResult, len(units))
	if len(pending) > 0 {
		d.run(ctx, units, pending, options, func(msg CellResult) {
			unit := units[msg.Index]
			if msg.Err != nil {
				fail(unit, msg.Err, msg.Elapsed)
				return
			}
			collected[msg.Index] = msg.Result
			if d.recorder != nil {
				d.recorder.RecordUnit(unit, msg.Result, nil, msg.Elapsed)
			}
			_ = bar.Add(1)
		})
	}
	_ = bar.Finish()

	results := make([]converters.ConversionResult, 0, len(units)-failures)
	for _, result := range collected {
		if !result.IsEmpty() {
			results = append(results, result)
		}
	}
	glog.Infof("converted %d/%d cells", len(results), len(units))
	return results
}

// run fans the pending unit indices out to the consumers and hands every one of the
// len(pending) results to collect, from the calling goroutine
func (d *Dispatcher) run(ctx context.Context, units []tiler.ConversionUnit, pending []int, options CellOptions, collect func(CellResult)) {
	numConsumers := d.numConsumers
	if numConsumers > len(pending) {
		numConsumers = len(pending)
	}

	// init channel where to submit work with a buffer 5 times greater than the number of consumers
	workChannel := make(chan int, numConsumers*5)
	resultChannel := make(chan CellResult, numConsumers)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	var producer Producer = NewStandardProducer(pending)
	go producer.Produce(workChannel, &waitGroup)

	for i := 0; i < numConsumers; i++ {
		waitGroup.Add(1)
		consumer := NewStandardConsumer(d.tileConverter, units, options)
		go consumer.Consume(ctx, workChannel, resultChannel, &waitGroup)
	}

	for received := 0; received < len(pending); received++ {
		collect(<-resultChannel)
	}

	waitGroup.Wait()
}
