package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackAndFinish(t *testing.T) {
	r := New("run-1", "aix-explainer", "kserve-ci-test")
	assert.Equal(t, OutcomeRunning, r.Outcome)

	require.NoError(t, r.Track(StepSubmit, func() error { return nil }))
	err := r.Track(StepReady, func() error { return errors.New("timed out") })
	assert.EqualError(t, err, "timed out")
	r.Skip(StepTeardown)
	r.Finish(err)

	assert.Equal(t, OutcomeFailed, r.Outcome)
	assert.Equal(t, "timed out", r.Error)

	step, ok := r.Step(StepReady)
	require.True(t, ok)
	assert.Equal(t, "timed out", step.Error)

	step, ok = r.Step(StepTeardown)
	require.True(t, ok)
	assert.True(t, step.Skipped)

	_, ok = r.Step(StepPredict)
	assert.False(t, ok)
}

func TestWriteFile(t *testing.T) {
	r := New("run-1", "aix-explainer", "kserve-ci-test")
	r.Predictions = [][]float64{{0, 0, 1}}
	r.Finish(nil)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.WriteFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "Succeeded", got["outcome"])
	assert.Equal(t, "aix-explainer", got["serviceName"])
}
