package ingest

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/harpgo/harp/internal/model"
)

// LoadOptions controls DispatchParallel's concurrency and error
// handling: a worker-pool pattern for dispatching N source files
// through a Registry concurrently.
type LoadOptions struct {
	// Parallel enables concurrent dispatch. If false, paths are
	// dispatched one at a time in order.
	Parallel bool

	// Workers is the number of concurrent dispatch goroutines. If 0,
	// defaults to runtime.NumCPU(). Ignored when Parallel is false.
	Workers int

	// SkipErrors continues dispatching the remaining paths after one
	// fails, collecting the failure instead of aborting immediately.
	SkipErrors bool

	// Progress, if set, is called after each path is dispatched
	// (successfully or not) with the running count and the total.
	Progress func(done, total int)

	// ErrorLog, if set, receives one line per dispatch failure.
	ErrorLog io.Writer
}

// DefaultLoadOptions returns sensible defaults: parallel across all
// CPUs, tolerant of individual failures.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
	}
}

// DispatchParallel runs Registry.Dispatch over every path in paths,
// each against the same optionValues, and returns the resulting
// products in path order (a path that failed has a nil product at its
// index) alongside every error encountered.
func DispatchParallel(ctx context.Context, r *Registry, paths []string, optionValues map[string]string, opts LoadOptions) ([]*model.Product, []error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if !opts.Parallel {
		return dispatchSerial(ctx, r, paths, optionValues, opts)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	type dispatchResult struct {
		index   int
		product *model.Product
		err     error
	}

	jobs := make(chan int, len(paths))
	results := make(chan dispatchResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				p, err := r.Dispatch(ctx, paths[index], optionValues)
				results <- dispatchResult{index: index, product: p, err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	products := make([]*model.Product, len(paths))
	var errs []error
	done := 0

	for res := range results {
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(paths))
		}
		if res.err != nil {
			err := fmt.Errorf("%s: %w", paths[res.index], res.err)
			if opts.ErrorLog != nil {
				fmt.Fprintf(opts.ErrorLog, "dispatch failed: %v\n", err)
			}
			if !opts.SkipErrors {
				return nil, []error{err}
			}
			errs = append(errs, err)
			continue
		}
		products[res.index] = res.product
	}
	return products, errs
}

func dispatchSerial(ctx context.Context, r *Registry, paths []string, optionValues map[string]string, opts LoadOptions) ([]*model.Product, []error) {
	products := make([]*model.Product, len(paths))
	var errs []error
	for i, path := range paths {
		p, err := r.Dispatch(ctx, path, optionValues)
		if opts.Progress != nil {
			opts.Progress(i+1, len(paths))
		}
		if err != nil {
			err := fmt.Errorf("%s: %w", path, err)
			if opts.ErrorLog != nil {
				fmt.Fprintf(opts.ErrorLog, "dispatch failed: %v\n", err)
			}
			if !opts.SkipErrors {
				return nil, []error{err}
			}
			errs = append(errs, err)
			continue
		}
		products[i] = p
	}
	return products, errs
}
