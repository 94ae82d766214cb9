package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sellersaathi/copilot-api/pkg/logger"
)

// Task is one independent unit of a fan-out.
type Task struct {
	Name string
	Run  func(ctx context.Context) (any, error)
}

// TaskFailure is the client safe record of a failed task.
type TaskFailure struct {
	Task       string     `json:"task"`
	Capability Capability `json:"capability"`
	Kind       Kind       `json:"kind"`
	Message    string     `json:"message"`
	err        error
}

func (f TaskFailure) Unwrap() error {
	return f.err
}

// Aggregate holds whatever subset of a fan-out succeeded.
type Aggregate struct {
	Results  map[string]any
	Failures []TaskFailure
}

// Err is non-nil only when every task failed.
func (a Aggregate) Err() error {
	if len(a.Results) > 0 || len(a.Failures) == 0 {
		return nil
	}
	return &FanOutError{Failures: a.Failures}
}

// FanOutError reports a fan-out in which no task succeeded.
type FanOutError struct {
	Failures []TaskFailure
}

func (e *FanOutError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Task + ": " + f.Message
	}
	return "all generation tasks failed: " + strings.Join(parts, "; ")
}

func (e *FanOutError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.err != nil {
			errs = append(errs, f.err)
		}
	}
	return errs
}

// AllKind returns the Kind shared by every failure, or "" when they differ.
func (e *FanOutError) AllKind() Kind {
	if len(e.Failures) == 0 {
		return ""
	}
	kind := e.Failures[0].Kind
	for _, f := range e.Failures[1:] {
		if f.Kind != kind {
			return ""
		}
	}
	return kind
}

// FanOut runs every task in its own goroutine and waits for all of them.
// Tasks run detached from ctx cancellation so an abandoned request still
// lets in-flight provider calls finish; one failure never stops the others.
func FanOut(ctx context.Context, tasks []Task) Aggregate {
	detached := context.WithoutCancel(ctx)
	values := make([]any, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("task %s panicked: %v", task.Name, r)
				}
			}()
			values[i], errs[i] = task.Run(detached)
		}(i, task)
	}
	wg.Wait()

	agg := Aggregate{Results: make(map[string]any, len(tasks))}
	log := logger.FromContext(ctx)
	for i, task := range tasks {
		if errs[i] != nil {
			agg.Failures = append(agg.Failures, failureOf(task.Name, errs[i]))
			log.Warn().Err(errs[i]).Str("task", task.Name).Msg("generation task failed")
			continue
		}
		agg.Results[task.Name] = values[i]
	}
	return agg
}

func failureOf(task string, err error) TaskFailure {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		capability := aiErr.Capability
		if capability == "" {
			capability = CapabilityGeneration
		}
		return TaskFailure{Task: task, Capability: capability, Kind: aiErr.Kind, Message: aiErr.Message, err: err}
	}
	return TaskFailure{Task: task, Capability: CapabilityGeneration, Kind: KindProviderFailure, Message: "generation failed", err: err}
}
