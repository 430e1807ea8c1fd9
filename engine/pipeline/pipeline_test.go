package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTelemetry struct {
	events []string
}

func (r *recordingTelemetry) Event(name string, props map[string]any) {
	r.events = append(r.events, name)
}

func constTask(name string, deps []string, out any) Task {
	return Task{Name: name, DependsOn: deps, Run: func(ctx context.Context, inputs []any) (any, error) {
		return out, nil
	}}
}

func TestPipeline_LinearChainRunsInOrder(t *testing.T) {
	var order []string
	mk := func(name string, deps []string) Task {
		return Task{Name: name, DependsOn: deps, Run: func(ctx context.Context, inputs []any) (any, error) {
			order = append(order, name)
			return name, nil
		}}
	}
	tel := &recordingTelemetry{}
	p := New("p1", []Task{mk("a", nil), mk("b", []string{"a"}), mk("c", []string{"b"})}, tel, nil)

	results, err := p.Run(context.Background(), "seed")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, "c", results["c"])
	assert.Equal(t, []string{"Pipeline Run Started", "Pipeline Run Completed"}, tel.events)
}

func TestPipeline_FanInGathersBothUpstreamOutputs(t *testing.T) {
	var gotInputs []any
	tasks := []Task{
		constTask("a", nil, "A"),
		constTask("b", nil, "B"),
		{Name: "c", DependsOn: []string{"a", "b"}, Run: func(ctx context.Context, inputs []any) (any, error) {
			gotInputs = inputs
			return "C", nil
		}},
	}
	p := New("p2", tasks, nil, nil)

	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"A", "B"}, gotInputs)
}

func TestPipeline_ErrorPropagatesAndEmitsErroredEvent(t *testing.T) {
	tasks := []Task{
		{Name: "a", Run: func(ctx context.Context, inputs []any) (any, error) {
			return nil, fmt.Errorf("boom")
		}},
		constTask("b", []string{"a"}, "unreached"),
	}
	tel := &recordingTelemetry{}
	p := New("p3", tasks, tel, nil)

	_, err := p.Run(context.Background(), "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"Pipeline Run Started", "Pipeline Run Errored"}, tel.events)
}

func TestPipeline_DisconnectedTaskRaisesWrongTaskOrder(t *testing.T) {
	tasks := []Task{
		constTask("a", nil, "A"),
		constTask("b", []string{"missing"}, "B"),
	}
	p := New("p4", tasks, nil, nil)

	_, err := p.Run(context.Background(), "seed")
	require.Error(t, err)
	var wrongOrder *WrongTaskOrderError
	assert.ErrorAs(t, err, &wrongOrder)
	assert.Equal(t, 1, wrongOrder.Executed)
	assert.Equal(t, 2, wrongOrder.Total)
}

func TestPipeline_MergeInputsConcatenatesUpstreamLists(t *testing.T) {
	var gotInputs []any
	tasks := []Task{
		constTask("a", nil, []string{"a1", "a2"}),
		constTask("b", nil, []string{"b1"}),
		{
			Name:        "c",
			DependsOn:   []string{"a", "b"},
			MergeInputs: [2]string{"a", "b"},
			Run: func(ctx context.Context, inputs []any) (any, error) {
				gotInputs = inputs
				return "C", nil
			},
		},
	}
	p := New("p6", tasks, nil, nil)

	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, gotInputs, 1)
	assert.Equal(t, []string{"a1", "a2", "b1"}, gotInputs[0])
}

func TestPipeline_MergeInputsPreservesUnmergedPositions(t *testing.T) {
	var gotInputs []any
	tasks := []Task{
		constTask("a", nil, []string{"a1"}),
		constTask("b", nil, []string{"b1"}),
		constTask("aux", nil, "side"),
		{
			Name:        "c",
			DependsOn:   []string{"aux", "a", "b"},
			MergeInputs: [2]string{"a", "b"},
			Run: func(ctx context.Context, inputs []any) (any, error) {
				gotInputs = inputs
				return "C", nil
			},
		},
	}
	p := New("p7", tasks, nil, nil)

	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, gotInputs, 2)
	assert.Equal(t, "side", gotInputs[0])
	assert.Equal(t, []string{"a1", "b1"}, gotInputs[1])
}

func TestPipeline_MergeInputsRejectsNonListOutputs(t *testing.T) {
	tasks := []Task{
		constTask("a", nil, "not-a-list"),
		constTask("b", nil, []string{"b1"}),
		{
			Name:        "c",
			DependsOn:   []string{"a", "b"},
			MergeInputs: [2]string{"a", "b"},
			Run: func(ctx context.Context, inputs []any) (any, error) {
				return "C", nil
			},
		},
	}
	p := New("p8", tasks, nil, nil)

	_, err := p.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge inputs")
}

func TestPipeline_EmptyTaskListIsNoOp(t *testing.T) {
	p := New("p5", nil, nil, nil)
	results, err := p.Run(context.Background(), "seed")
	require.NoError(t, err)
	assert.Nil(t, results)
}
