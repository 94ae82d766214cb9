package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOut_PartialSuccess(t *testing.T) {
	tasks := []Task{
		{Name: "seo", Run: func(context.Context) (any, error) { return "seo content", nil }},
		{Name: "whatsapp", Run: func(context.Context) (any, error) {
			return nil, schemaViolation("provider output is not valid JSON")
		}},
		{Name: "conversational", Run: func(context.Context) (any, error) { return "pitch", nil }},
	}

	agg := FanOut(context.Background(), tasks)

	assert.NoError(t, agg.Err())
	assert.Equal(t, map[string]any{"seo": "seo content", "conversational": "pitch"}, agg.Results)
	require.Len(t, agg.Failures, 1)
	assert.Equal(t, "whatsapp", agg.Failures[0].Task)
	assert.Equal(t, KindSchemaViolation, agg.Failures[0].Kind)
}

func TestFanOut_AllFailed(t *testing.T) {
	tasks := []Task{
		{Name: "seo", Run: func(context.Context) (any, error) { return nil, schemaViolation("bad") }},
		{Name: "whatsapp", Run: func(context.Context) (any, error) { return nil, errors.New("boom") }},
	}

	err := FanOut(context.Background(), tasks).Err()
	require.Error(t, err)

	var fe *FanOutError
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe.Failures, 2)
	assert.Equal(t, Kind(""), fe.AllKind())
	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.Contains(t, err.Error(), "seo: bad")
	assert.Contains(t, err.Error(), "whatsapp: generation failed")
}

func TestFanOut_PanicIsAFailure(t *testing.T) {
	agg := FanOut(context.Background(), []Task{
		{Name: "ok", Run: func(context.Context) (any, error) { return 1, nil }},
		{Name: "bad", Run: func(context.Context) (any, error) { panic("nil map") }},
	})
	assert.NoError(t, agg.Err())
	require.Len(t, agg.Failures, 1)
	assert.Equal(t, "bad", agg.Failures[0].Task)
}

func TestFanOut_RunsConcurrentlyAndIgnoresCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	run := func(ctx context.Context) (any, error) {
		started <- struct{}{}
		<-release
		return nil, ctx.Err()
	}

	done := make(chan Aggregate)
	go func() {
		done <- FanOut(ctx, []Task{{Name: "a", Run: run}, {Name: "b", Run: run}})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("tasks did not start concurrently")
		}
	}
	cancel()
	close(release)

	agg := <-done
	assert.Len(t, agg.Results, 2)
	assert.Empty(t, agg.Failures)
}

func TestFanOut_Empty(t *testing.T) {
	agg := FanOut(context.Background(), nil)
	assert.NoError(t, agg.Err())
	assert.Empty(t, agg.Results)
}
