package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"sync"

	"github.com/nm004/img2tempdecal"
	"github.com/nm004/img2tempdecal/resample"
	"github.com/nm004/img2tempdecal/store"
)

const stdio = "-"

type job struct {
	input  string
	output string

	sha    string
	pb     *img2tempdecal.PixelBuffer
	cached []byte

	resp <-chan img2tempdecal.Response
}

type converter struct {
	worker *img2tempdecal.Worker
	db     *store.Store
	opts   img2tempdecal.Options
	logger *log.Logger
	stdin  io.Reader
	stdout io.Writer
}

func (c *converter) readInput(name string) ([]byte, error) {
	if name == stdio {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(name)
}

func (c *converter) writeOutput(name string, b []byte) error {
	if name == stdio {
		_, err := c.stdout.Write(b)
		return err
	}
	return os.WriteFile(name, b, 0o644)
}

// Runs each stage on its own goroutine, the first error ends the run
type pipeline struct {
	wg   sync.WaitGroup
	errc chan error
}

func newPipeline(stages int) *pipeline {
	return &pipeline{
		errc: make(chan error, stages),
	}
}

func (p *pipeline) stage(f func() error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := f(); err != nil {
			p.errc <- err
		}
	}()
}

func (p *pipeline) wait() error {
	go func() {
		p.wg.Wait()
		close(p.errc)
	}()
	if err, ok := <-p.errc; ok {
		return err
	}
	return nil
}

var errCancelled = errors.New("conversion cancelled")

// Reads and decodes each input, unless a previous conversion is in the
// database
func (c *converter) decodeInputs(ctx context.Context, inputs, outputs []string, out chan<- job) error {
	defer close(out)
	for i, input := range inputs {
		b, err := c.readInput(input)
		if err != nil {
			return err
		}

		j := job{
			input:  input,
			output: outputs[i],
		}

		if c.db != nil {
			if j.sha, err = store.Sum(bytes.NewReader(b)); err != nil {
				return err
			}
			if j.cached, err = c.db.Find(j.sha, c.opts); err != nil {
				return err
			}
		}

		if j.cached == nil {
			m, _, err := image.Decode(bytes.NewReader(b))
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			j.pb = resample.FromImage(m)
		} else {
			c.logger.Printf("Using stored conversion of \"%s\"\n", input)
		}

		select {
		case out <- j:
		case <-ctx.Done():
			return errCancelled
		}
	}
	return nil
}

// Hands each decoded input to the worker without waiting for the result
func (c *converter) submitJobs(ctx context.Context, in <-chan job, out chan<- job) error {
	defer close(out)
	for j := range in {
		if j.cached == nil {
			j.resp = c.worker.Submit(j.pb, c.opts)
			j.pb = nil
		}

		select {
		case out <- j:
		case <-ctx.Done():
			return errCancelled
		}
	}
	return nil
}

// Responses come back in the order jobs were submitted so they can be
// written in turn
func (c *converter) writeJobs(in <-chan job) error {
	for j := range in {
		b := j.cached
		if b == nil {
			resp := <-j.resp
			if resp.Err != nil {
				return fmt.Errorf("%s: %w", j.input, resp.Err)
			}
			b = resp.Bytes()

			if c.db != nil {
				if err := c.db.Put(j.sha, c.opts, b); err != nil {
					return err
				}
			}
		}

		if err := c.writeOutput(j.output, b); err != nil {
			return err
		}
		c.logger.Printf("Converted \"%s\" to \"%s\"\n", j.input, j.output)
	}
	return nil
}

func (c *converter) run(inputs, outputs []string) error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	decoded := make(chan job)
	submitted := make(chan job)

	p := newPipeline(3)
	p.stage(func() error { return c.decodeInputs(ctx, inputs, outputs, decoded) })
	p.stage(func() error { return c.submitJobs(ctx, decoded, submitted) })
	p.stage(func() error { return c.writeJobs(submitted) })

	return p.wait()
}
