package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"kserve-lifecycle/internal/helpers/inference"
)

type Outcome string

const (
	OutcomeRunning   Outcome = "Running"
	OutcomeSucceeded Outcome = "Succeeded"
	OutcomeFailed    Outcome = "Failed"
)

type StepName string

const (
	StepSubmit   StepName = "submit"
	StepReady    StepName = "awaitReady"
	StepPredict  StepName = "predict"
	StepExplain  StepName = "explain"
	StepTeardown StepName = "teardown"
)

type Step struct {
	Name     StepName      `json:"name"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
}

// Report is the outcome of one lifecycle run, written as JSON so a failed run
// can be triaged without re-running it.
type Report struct {
	RunId          string              `json:"runId,omitempty"`
	ServiceName    string              `json:"serviceName"`
	Namespace      string              `json:"namespace"`
	Endpoint       *inference.Endpoint `json:"endpoint,omitempty"`
	Outcome        Outcome             `json:"outcome"`
	Steps          []Step              `json:"steps,omitempty"`
	Predictions    [][]float64         `json:"predictions,omitempty"`
	PredictedClass *int                `json:"predictedClass,omitempty"`
	MaskCoverage   *float64            `json:"maskCoverage,omitempty"`
	Error          string              `json:"error,omitempty"`
	Diagnostics    string              `json:"diagnostics,omitempty"`
}

func New(runId, serviceName, namespace string) *Report {
	return &Report{
		RunId:       runId,
		ServiceName: serviceName,
		Namespace:   namespace,
		Outcome:     OutcomeRunning,
	}
}

// Track records the duration and the error of a step.
func (r *Report) Track(name StepName, fn func() error) error {
	step := Step{Name: name, Started: time.Now()}
	err := fn()
	step.Duration = time.Since(step.Started)
	if err != nil {
		step.Error = err.Error()
	}
	r.Steps = append(r.Steps, step)
	return err
}

func (r *Report) Skip(name StepName) {
	r.Steps = append(r.Steps, Step{Name: name, Started: time.Now(), Skipped: true})
}

func (r *Report) Step(name StepName) (Step, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

func (r *Report) Finish(err error) {
	if err != nil {
		r.Outcome = OutcomeFailed
		r.Error = err.Error()
		return
	}
	r.Outcome = OutcomeSucceeded
}

func (r *Report) WriteFile(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal report to json: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("unable to write report to %s: %w", path, err)
	}
	return nil
}
