// Package pipeline is the C6 task runtime: a dependency-ordered DAG
// executor that streams typed datapoints between tasks, stamps provenance,
// and logs one run per invocation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/topoteretes/cognee-go/engine/datapoint"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

// TaskFunc runs one pipeline task against its upstream inputs (the outputs
// of the tasks named in Task.DependsOn, in that order) or, for a root task,
// against the pipeline's initial input. It returns the value to hand to
// dependents.
type TaskFunc func(ctx context.Context, inputs []any) (any, error)

// Task is one node in the DAG. Name must be unique within a Pipeline;
// DependsOn lists the Names of tasks whose output this task consumes.
type Task struct {
	Name      string
	DependsOn []string
	// MergeInputs names two entries of DependsOn whose upstream outputs
	// should be concatenated into one list and delivered as a single
	// input, instead of as two separate positional inputs — a first-class
	// input modifier, not a task of its own. Zero value (both names
	// empty) disables merging.
	MergeInputs [2]string
	Run         TaskFunc
}

// WrongTaskOrderError is raised when the DAG didn't fully drain — a
// disconnected task or a circular dependency among DependsOn references.
type WrongTaskOrderError struct {
	Executed int
	Total    int
}

func (e *WrongTaskOrderError) Error() string {
	return fmt.Sprintf("pipeline: %d/%d tasks executed; disconnected task or circular dependency", e.Executed, e.Total)
}

// Telemetry receives the three named lifecycle events a pipeline run emits.
// A nil Telemetry is valid — events are simply dropped.
type Telemetry interface {
	Event(name string, props map[string]any)
}

// RunLogger persists PipelineRun rows — satisfied by engine/catalog.Catalog.
type RunLogger interface {
	RecordRunStarted(ctx context.Context, runID, pipelineName, datasetID string) error
	RecordRunCompleted(ctx context.Context, runID string) error
	RecordRunErrored(ctx context.Context, runID string, errMsg string) error
}

// Pipeline is a named, orderable set of tasks executed against one input.
type Pipeline struct {
	Name      string
	DatasetID string
	Tasks     []Task
	Telemetry Telemetry
	RunLogger RunLogger
	Logger    *slog.Logger
}

// New creates a Pipeline. logger may be nil (defaults to slog.Default()).
func New(name string, tasks []Task, telemetry Telemetry, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Name: name, Tasks: tasks, Telemetry: telemetry, Logger: logger}
}

func (p *Pipeline) event(name string, props map[string]any) {
	if p.Telemetry != nil {
		p.Telemetry.Event(name, props)
	}
}

// Run executes the DAG against input, returning the output of each task
// keyed by Task.Name. Every DataPoint (or slice of DataPoints) produced by
// a task is stamped with this pipeline's name and that task's name before
// being handed to dependents, per provenance monotonicity (invariant §3.4).
// A task whose MergeInputs names a pair of its DependsOn entries receives
// those two upstream outputs pre-concatenated into one list input rather
// than as two positional inputs.
//
// Emits "Pipeline Run Started" once, then exactly one of "Pipeline Run
// Completed" or "Pipeline Run Errored", mirroring run_tasks_with_telemetry.
func (p *Pipeline) Run(ctx context.Context, input any) (map[string]any, error) {
	ctx, span := otel.Tracer("engine/pipeline").Start(ctx, "pipeline.run")
	defer span.End()

	runID := uuid.New().String()
	if p.RunLogger != nil {
		if err := p.RunLogger.RecordRunStarted(ctx, runID, p.Name, p.DatasetID); err != nil {
			p.Logger.Warn("pipeline: run-start logging failed", "pipeline", p.Name, "error", err)
		}
	}

	p.Logger.Info("pipeline run started", "pipeline", p.Name)
	p.event("Pipeline Run Started", map[string]any{"pipeline_name": p.Name})

	results, err := p.runTasks(ctx, input)
	if err != nil {
		p.Logger.Error("pipeline run errored", "pipeline", p.Name, "error", err)
		p.event("Pipeline Run Errored", map[string]any{"pipeline_name": p.Name})
		if p.RunLogger != nil {
			if logErr := p.RunLogger.RecordRunErrored(ctx, runID, err.Error()); logErr != nil {
				p.Logger.Warn("pipeline: run-error logging failed", "pipeline", p.Name, "error", logErr)
			}
		}
		return nil, err
	}

	p.Logger.Info("pipeline run completed", "pipeline", p.Name)
	p.event("Pipeline Run Completed", map[string]any{"pipeline_name": p.Name})
	if p.RunLogger != nil {
		if err := p.RunLogger.RecordRunCompleted(ctx, runID); err != nil {
			p.Logger.Warn("pipeline: run-complete logging failed", "pipeline", p.Name, "error", err)
		}
	}
	return results, nil
}

// runTasks is the Go port of run_tasks_base: ready-queue scheduling over a
// dependency graph built from Task.DependsOn, with WrongTaskOrderError
// raised only after the queue drains, never mid-flight.
func (p *Pipeline) runTasks(ctx context.Context, input any) (map[string]any, error) {
	if len(p.Tasks) == 0 {
		return nil, nil
	}

	tasksByName := make(map[string]Task, len(p.Tasks))
	remainingDeps := make(map[string][]string, len(p.Tasks))
	dependents := make(map[string][]string)

	for _, t := range p.Tasks {
		tasksByName[t.Name] = t
		deps := append([]string(nil), t.DependsOn...)
		remainingDeps[t.Name] = deps
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], t.Name)
		}
	}

	var ready []string
	for _, t := range p.Tasks {
		if len(remainingDeps[t.Name]) == 0 {
			ready = append(ready, t.Name)
		}
	}

	results := make(map[string]any, len(p.Tasks))
	executed := 0

	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		task := tasksByName[name]

		var inputs []any
		if len(task.DependsOn) > 0 {
			var err error
			inputs, err = gatherInputs(task, results)
			if err != nil {
				return nil, fmt.Errorf("pipeline: task %s: %w", name, err)
			}
		} else if input != nil {
			inputs = []any{input}
		}

		taskCtx, span := otel.Tracer("engine/pipeline").Start(ctx, "task."+name)
		out, err := task.Run(taskCtx, inputs)
		span.End()
		if err != nil {
			return nil, fmt.Errorf("pipeline: task %s: %w", name, err)
		}

		datapoint.StampProvenance(out, p.Name, name)
		results[name] = out
		executed++

		for _, dep := range dependents[name] {
			deps := remainingDeps[dep]
			for i, d := range deps {
				if d == name {
					deps = append(deps[:i], deps[i+1:]...)
					break
				}
			}
			remainingDeps[dep] = deps
			if len(deps) == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if executed != len(p.Tasks) {
		return nil, &WrongTaskOrderError{Executed: executed, Total: len(p.Tasks)}
	}
	return results, nil
}

// gatherInputs collects task's upstream results in DependsOn order,
// applying the merge-inputs modifier when task.MergeInputs names a pair:
// the two named entries collapse into one concatenated list input at the
// position of their first occurrence, instead of two positional inputs.
func gatherInputs(task Task, results map[string]any) ([]any, error) {
	a, b := task.MergeInputs[0], task.MergeInputs[1]
	if a == "" || b == "" {
		inputs := make([]any, len(task.DependsOn))
		for i, dep := range task.DependsOn {
			inputs[i] = results[dep]
		}
		return inputs, nil
	}

	merged, err := concatLists(results[a], results[b])
	if err != nil {
		return nil, fmt.Errorf("merge inputs %s+%s: %w", a, b, err)
	}

	inputs := make([]any, 0, len(task.DependsOn)-1)
	mergedPlaced := false
	for _, dep := range task.DependsOn {
		if dep == a || dep == b {
			if !mergedPlaced {
				inputs = append(inputs, merged)
				mergedPlaced = true
			}
			continue
		}
		inputs = append(inputs, results[dep])
	}
	return inputs, nil
}

// concatLists concatenates two upstream list-shaped outputs into a single
// slice, the runtime form of the merge-inputs modifier (§4.6): a nil side
// passes the other through unchanged; otherwise both sides must be slices.
func concatLists(a, b any) (any, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Slice || vb.Kind() != reflect.Slice {
		return nil, fmt.Errorf("both upstream outputs must be lists, got %T and %T", a, b)
	}

	out := reflect.MakeSlice(va.Type(), 0, va.Len()+vb.Len())
	out = reflect.AppendSlice(out, va)
	if vb.Type().AssignableTo(va.Type()) {
		out = reflect.AppendSlice(out, vb)
	} else {
		for i := 0; i < vb.Len(); i++ {
			out = reflect.Append(out, vb.Index(i))
		}
	}
	return out.Interface(), nil
}
