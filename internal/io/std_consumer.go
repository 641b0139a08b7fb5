package io

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/golang/glog"
)

type StandardConsumer struct {
	tileConverter converters.TileConverter
	units         []tiler.ConversionUnit
	options       CellOptions
}

func NewStandardConsumer(tileConverter converters.TileConverter, units []tiler.ConversionUnit, options CellOptions) *StandardConsumer {
	return &StandardConsumer{
		tileConverter: tileConverter,
		units:         units,
		options:       options,
	}
}

// Continually consumes unit indices submitted to the work channel until it is closed. Every index
// yields exactly one CellResult, failures included, so the collector can count messages.
func (c *StandardConsumer) Consume(ctx context.Context, workchan <-chan int, results chan<- CellResult, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()

	for index := range workchan {
		startTime := time.Now()
		result, err := c.doWork(ctx, index)
		results <- CellResult{
			Index:   index,
			Result:  result,
			Err:     err,
			Elapsed: time.Since(startTime),
		}
	}
}

func (c *StandardConsumer) doWork(ctx context.Context, index int) (result converters.ConversionResult, err error) {
	unit := c.units[index]

	// a panicking converter costs one unit, never the run
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("converter panic on %s: %v", unit.Input, r)
			result, err = converters.ConversionResult{}, fmt.Errorf("%w: panic: %v", converters.ErrConversionFailed, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return converters.ConversionResult{}, err
	}

	result, err = c.tileConverter.ConvertCell(ctx, converters.CellRequest{
		Input:    unit.Input,
		Output:   unit.Output,
		LonRad:   c.options.LonRad,
		LatRad:   c.options.LatRad,
		MaxLevel: c.options.MaxLevel,
		Features: c.options.Features,
	})
	if err != nil {
		return converters.ConversionResult{}, err
	}
	if result.IsEmpty() {
		return converters.ConversionResult{}, fmt.Errorf("%w: %s produced no tile", converters.ErrConversionFailed, unit.Input)
	}
	if result.Output == "" {
		result.Output = unit.Output
	}
	return result, nil
}
