package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"

	"watchme-asr/internal/app/common"
	"watchme-asr/internal/app/model"
)

// fakeRun implements client.WorkflowRun
type fakeRun struct {
	result common.BatchWorkflowResult
	err    error
	delay  time.Duration
}

func (r *fakeRun) GetID() string    { return "wf-1" }
func (r *fakeRun) GetRunID() string { return "run-1" }

func (r *fakeRun) Get(ctx context.Context, valuePtr interface{}) error {
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	if r.err != nil {
		return r.err
	}
	*(valuePtr.(*common.BatchWorkflowResult)) = r.result
	return nil
}

func (r *fakeRun) GetWithOptions(ctx context.Context, valuePtr interface{}, _ client.WorkflowRunGetOptions) error {
	return r.Get(ctx, valuePtr)
}

func TestBatchWorkflowID(t *testing.T) {
	id := BatchWorkflowID(common.BatchWorkflowRequest{Selector: model.Selector{DeviceID: "D1", Date: "2025-08-26"}})
	assert.True(t, strings.HasPrefix(id, "asr-batch-D1-2025-08-26-"), id)

	id = BatchWorkflowID(common.BatchWorkflowRequest{Selector: model.Selector{StorageKeys: []string{"files/D1/2025-08-26/09-00/audio.wav"}}})
	assert.True(t, strings.HasPrefix(id, "asr-batch-files-"), id)
}

func TestSubmitBatchRejectsInvalidSelector(t *testing.T) {
	_, err := SubmitBatch(context.Background(), nil, "asr-batch", common.BatchWorkflowRequest{Selector: model.Selector{DeviceID: "D1"}})
	assert.Error(t, err)
}

func TestWaitForBatch(t *testing.T) {
	run := &fakeRun{
		result: common.BatchWorkflowResult{Summary: model.BatchSummary{RunID: "r1", Completed: 2}},
		delay:  30 * time.Millisecond,
	}
	ticks := 0
	result, err := WaitForBatch(context.Background(), run, 5*time.Millisecond, func(time.Duration) { ticks++ })
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Completed)
	assert.Positive(t, ticks)

	_, err = WaitForBatch(context.Background(), &fakeRun{err: errors.New("activity failed")}, time.Second, nil)
	assert.ErrorContains(t, err, "wf-1")
}
