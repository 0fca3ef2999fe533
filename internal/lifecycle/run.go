package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"kserve-lifecycle/api/v1beta1"
	"kserve-lifecycle/internal/helpers/diagnostics"
	"kserve-lifecycle/internal/helpers/inference"
	"kserve-lifecycle/internal/helpers/report"
	"kserve-lifecycle/internal/helpers/verify"
)

type TeardownPolicy string

const (
	// TeardownNone keeps the workload for post-mortem inspection.
	TeardownNone TeardownPolicy = "None"
	// TeardownOnSuccess deletes only when every step passed.
	TeardownOnSuccess TeardownPolicy = "DeleteOnSuccess"
	// TeardownOnCompletion deletes on every exit path after a successful submit.
	TeardownOnCompletion TeardownPolicy = "DeleteOnCompletion"
)

func ParseTeardownPolicy(s string) (TeardownPolicy, error) {
	switch p := TeardownPolicy(s); p {
	case TeardownNone, TeardownOnSuccess, TeardownOnCompletion:
		return p, nil
	}
	return "", fmt.Errorf("unknown teardown policy %q, expected one of %s, %s, %s", s, TeardownNone, TeardownOnSuccess, TeardownOnCompletion)
}

func shouldTeardown(policy TeardownPolicy, runErr error) bool {
	switch policy {
	case TeardownNone:
		return false
	case TeardownOnSuccess:
		return runErr == nil
	case TeardownOnCompletion:
		return true
	}
	return false
}

// teardownGrace bounds the deletion when the caller's context is already done.
const teardownGrace = time.Minute

// Scenario is what a run sends to the ready service and expects back.
type Scenario struct {
	ReadyTimeout time.Duration
	Payload      []byte
	// ExplainPayload defaults to Payload
	ExplainPayload []byte
	SkipExplain    bool
	Expect         verify.Expectations
}

// Run drives the whole lifecycle: submit, wait for readiness, predict,
// explain, verify and tear down according to the teardown policy. A
// teardown failure is appended to, never substituted for, an earlier error.
func (d *Driver) Run(ctx context.Context, isvc *v1beta1.InferenceService, sc Scenario) (rep *report.Report, err error) {
	if isvc == nil {
		err = &SubmissionError{Err: fmt.Errorf("nil descriptor")}
		rep = report.New(d.runId, "", "")
		rep.Finish(err)
		return rep, err
	}
	rep = report.New(d.runId, isvc.Name, isvc.Namespace)

	log := d.log.WithValues("Lifecycle", "Run", "name", isvc.Name, "namespace", isvc.Namespace)

	var h *Handle
	if err = rep.Track(report.StepSubmit, func() error {
		var serr error
		h, serr = d.Submit(ctx, isvc)
		return serr
	}); err != nil {
		rep.Finish(err)
		return rep, err
	}

	defer func() {
		if !shouldTeardown(d.teardownPolicy, err) {
			log.Info(fmt.Sprintf("teardown policy %s: keeping InferenceService %s", d.teardownPolicy, h.Name))
			rep.Skip(report.StepTeardown)
			rep.Finish(err)
			return
		}

		tctx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			tctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), teardownGrace+d.deletionTimeout)
			defer cancel()
		}
		tErr := rep.Track(report.StepTeardown, func() error { return d.Teardown(tctx, h) })
		err = multierr.Append(err, tErr)
		rep.Finish(err)
	}()

	var ep *inference.Endpoint
	if err = rep.Track(report.StepReady, func() error {
		var rerr error
		ep, rerr = d.AwaitReady(ctx, h, sc.ReadyTimeout)
		return rerr
	}); err != nil {
		var timeoutErr *ReadinessTimeoutError
		if errors.As(err, &timeoutErr) {
			rep.Diagnostics = timeoutErr.Diagnostics.String()
		}
		return rep, err
	}
	rep.Endpoint = ep

	if err = rep.Track(report.StepPredict, func() error {
		return d.predictAndVerify(ctx, ep, sc, rep)
	}); err != nil {
		return rep, err
	}

	if sc.SkipExplain {
		rep.Skip(report.StepExplain)
		return rep, nil
	}

	err = rep.Track(report.StepExplain, func() error {
		return d.explainAndVerify(ctx, ep, sc, rep)
	})
	return rep, err
}

func (d *Driver) predictAndVerify(ctx context.Context, ep *inference.Endpoint, sc Scenario, rep *report.Report) error {
	res, err := d.Predict(ctx, ep, sc.Payload)
	if err != nil {
		return err
	}
	rows, err := res.Predictions()
	if err != nil {
		return &InferenceError{Verb: "predict", Name: ep.ModelName, Err: err}
	}
	rep.Predictions = rows

	class, err := sc.Expect.CheckPredictions(rows)
	if class >= 0 {
		rep.PredictedClass = &class
	}
	return err
}

func (d *Driver) explainAndVerify(ctx context.Context, ep *inference.Endpoint, sc Scenario, rep *report.Report) error {
	payload := sc.ExplainPayload
	if payload == nil {
		payload = sc.Payload
	}
	res, err := d.Explain(ctx, ep, payload)
	if err != nil {
		return err
	}
	mask, err := res.Mask()
	if err != nil {
		return &InferenceError{Verb: "explain", Name: ep.ModelName, Err: err}
	}

	coverage, err := sc.Expect.CheckMask(mask)
	if err != nil {
		var failure *verify.AssertionFailure
		if !errors.As(err, &failure) {
			return &InferenceError{Verb: "explain", Name: ep.ModelName, Err: err}
		}
	}
	rep.MaskCoverage = &coverage
	return err
}

// Diagnostics returns the diagnostics attached to a readiness timeout found in err.
func Diagnostics(err error) *diagnostics.Diagnostics {
	var timeoutErr *ReadinessTimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Diagnostics
	}
	return nil
}
