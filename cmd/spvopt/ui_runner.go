package main

import (
	"context"
	"os"

	"spvopt/internal/driver"
	"spvopt/internal/ui"
)

type batchOutcome struct {
	results []driver.FileResult
	err     error
}

func runWithUI(ctx context.Context, title string, req *driver.Request) ([]driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Sink = driver.ChannelSink{Ch: events}
		res, err := driver.OptimizeFiles(ctx, reqCopy)
		outcomeCh <- batchOutcome{results: res, err: err}
		close(events)
	}()

	uiErr := ui.Run(title, req.Files, events, os.Stdout)
	// the model may stop reading early
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
