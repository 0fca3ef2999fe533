package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	finopsdatatypes "github.com/krateoplatformops/finops-data-types/api/v1"

	"kserve-lifecycle/api/v1beta1"
	"kserve-lifecycle/internal/helpers/inference"
	clientHelper "kserve-lifecycle/internal/helpers/kube/client"
)

const (
	DefaultPollInterval       = 10 * time.Second
	DefaultDiagnosticsTimeout = 30 * time.Second
)

// Inferencer issues the calls against a ready endpoint.
type Inferencer interface {
	Predict(ctx context.Context, ep inference.Endpoint, payload []byte) (*inference.Response, error)
	Explain(ctx context.Context, ep inference.Endpoint, payload []byte) (*inference.Response, error)
}

// IngressResolver returns the address inference traffic is sent to.
type IngressResolver interface {
	Resolve(ctx context.Context) (string, error)
}

type Options struct {
	Logger             logging.Logger
	RunId              string
	PollInterval       time.Duration
	DeletionTimeout    time.Duration
	DiagnosticsTimeout time.Duration
	TeardownPolicy     TeardownPolicy
	Protocol           inference.Protocol
	// KnativeServiceSuffix names the predictor knative Service read on timeouts.
	KnativeServiceSuffix string
}

// Handle identifies a submitted InferenceService.
type Handle struct {
	Name      string
	Namespace string
	UID       types.UID
	ModelName string
}

func (h *Handle) Ref() *finopsdatatypes.ObjectRef {
	return &finopsdatatypes.ObjectRef{Name: h.Name, Namespace: h.Namespace}
}

// Driver walks an InferenceService through submit, readiness, verification
// and deletion. All collaborators are passed in; it holds no global state.
type Driver struct {
	dynClient          dynamic.Interface
	clientset          kubernetes.Interface
	inferencer         Inferencer
	ingress            IngressResolver
	log                logging.Logger
	runId              string
	pollInterval       time.Duration
	deletionTimeout    time.Duration
	diagnosticsTimeout time.Duration
	teardownPolicy     TeardownPolicy
	protocol           inference.Protocol
	knativeSuffix      string
}

func New(dynClient dynamic.Interface, clientset kubernetes.Interface, inferencer Inferencer, ingress IngressResolver, o Options) *Driver {
	d := &Driver{
		dynClient:          dynClient,
		clientset:          clientset,
		inferencer:         inferencer,
		ingress:            ingress,
		log:                o.Logger,
		runId:              o.RunId,
		pollInterval:       o.PollInterval,
		deletionTimeout:    o.DeletionTimeout,
		diagnosticsTimeout: o.DiagnosticsTimeout,
		teardownPolicy:     o.TeardownPolicy,
		protocol:           o.Protocol,
		knativeSuffix:      o.KnativeServiceSuffix,
	}
	if d.log == nil {
		d.log = logging.NewLogrLogger(logr.Discard())
	}
	if d.pollInterval <= 0 {
		d.pollInterval = DefaultPollInterval
	}
	if d.diagnosticsTimeout <= 0 {
		d.diagnosticsTimeout = DefaultDiagnosticsTimeout
	}
	if d.teardownPolicy == "" {
		d.teardownPolicy = TeardownOnCompletion
	}
	if d.protocol == "" {
		d.protocol = inference.ProtocolV1
	}
	return d
}

// Submit creates the InferenceService described by isvc. The descriptor
// itself is left untouched.
func (d *Driver) Submit(ctx context.Context, isvc *v1beta1.InferenceService) (*Handle, error) {
	if isvc == nil {
		return nil, &SubmissionError{Err: fmt.Errorf("nil descriptor")}
	}

	desc := *isvc
	desc.Status = v1beta1.InferenceServiceStatus{}
	desc.SetDefaults()

	log := d.log.WithValues("Lifecycle", "Submit", "name", desc.Name, "namespace", desc.Namespace)

	if err := desc.Validate(); err != nil {
		return nil, &SubmissionError{Name: desc.Name, Namespace: desc.Namespace, Err: fmt.Errorf("invalid descriptor: %w", err)}
	}

	un, err := clientHelper.ToUnstructured(&desc)
	if err != nil {
		return nil, &SubmissionError{Name: desc.Name, Namespace: desc.Namespace, Err: err}
	}
	unstructured.RemoveNestedField(un.Object, "status")

	if b, err := json.Marshal(un.Object); err == nil {
		log.Debug("Descriptor: " + string(b))
	}

	created, err := clientHelper.CreateObj(ctx, un, v1beta1.Resource, d.dynClient)
	if err != nil {
		return nil, &SubmissionError{
			Name:          desc.Name,
			Namespace:     desc.Namespace,
			AlreadyExists: apierrors.IsAlreadyExists(err),
			Err:           err,
		}
	}

	log.Info(fmt.Sprintf("submitted InferenceService %s", desc.Name))

	return &Handle{
		Name:      desc.Name,
		Namespace: desc.Namespace,
		UID:       created.GetUID(),
		ModelName: desc.Name,
	}, nil
}

// AwaitReady polls the InferenceService every poll interval until it reports
// Ready or timeout elapses. Only wall-clock time counts; a timeout <= 0 means
// a single check. On timeout the returned *ReadinessTimeoutError carries
// diagnostics gathered on a best-effort basis.
func (d *Driver) AwaitReady(ctx context.Context, h *Handle, timeout time.Duration) (*inference.Endpoint, error) {
	if timeout < 0 {
		timeout = 0
	}

	log := d.log.WithValues("Lifecycle", "AwaitReady", "name", h.Name, "namespace", h.Namespace)

	var (
		last    *v1beta1.InferenceService
		lastErr error
		polls   int
	)
	start := time.Now()
	err := wait.PollUntilContextTimeout(ctx, d.pollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		polls++
		isvc, err := d.get(ctx, h)
		if err != nil {
			lastErr = err
			log.Debug(fmt.Sprintf("poll %d: %v", polls, err))
			return false, nil
		}
		last, lastErr = isvc, nil
		if isvc.IsReady() {
			return true, nil
		}
		log.Debug(fmt.Sprintf("poll %d: %s not ready yet: %s", polls, h.Name, readyMessage(isvc)))
		return false, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("stopped waiting for InferenceService %s: %w", h.Name, ctx.Err())
		}

		timeoutErr := &ReadinessTimeoutError{
			Name:        h.Name,
			Namespace:   h.Namespace,
			Timeout:     timeout,
			Elapsed:     time.Since(start),
			Polls:       polls,
			LastErr:     lastErr,
			Diagnostics: d.collectDiagnostics(ctx, h),
		}
		if last != nil {
			timeoutErr.LastStatus = &last.Status
		}
		log.Warn(timeoutErr.Error())
		timeoutErr.Diagnostics.Log(log)
		return nil, timeoutErr
	}

	log.Info(fmt.Sprintf("InferenceService %s ready after %d polls", h.Name, polls))

	return d.endpointFor(ctx, h, last)
}

// Predict issues a single predict call. The response is returned verbatim.
func (d *Driver) Predict(ctx context.Context, ep *inference.Endpoint, payload []byte) (*inference.Response, error) {
	if ep == nil {
		return nil, &InferenceError{Verb: "predict", Err: fmt.Errorf("no endpoint, the service is not ready")}
	}
	res, err := d.inferencer.Predict(ctx, *ep, payload)
	if err != nil {
		return nil, &InferenceError{Verb: "predict", Name: ep.ModelName, Err: err}
	}
	d.log.Debug(fmt.Sprintf("predict %s: %s", ep.ModelName, string(res.Body)))
	return res, nil
}

// Explain issues a single explain call. The response is returned verbatim.
func (d *Driver) Explain(ctx context.Context, ep *inference.Endpoint, payload []byte) (*inference.Response, error) {
	if ep == nil {
		return nil, &InferenceError{Verb: "explain", Err: fmt.Errorf("no endpoint, the service is not ready")}
	}
	res, err := d.inferencer.Explain(ctx, *ep, payload)
	if err != nil {
		return nil, &InferenceError{Verb: "explain", Name: ep.ModelName, Err: err}
	}
	return res, nil
}

// Teardown deletes the InferenceService. Deleting an already deleted service
// succeeds. With a deletion timeout it also waits for the object to be gone.
func (d *Driver) Teardown(ctx context.Context, h *Handle) error {
	log := d.log.WithValues("Lifecycle", "Teardown", "name", h.Name, "namespace", h.Namespace)

	err := clientHelper.DeleteObj(ctx, h.Ref(), v1beta1.GroupVersion.String(), v1beta1.Resource, d.dynClient)
	if apierrors.IsNotFound(err) {
		log.Info(fmt.Sprintf("InferenceService %s already deleted", h.Name))
		return nil
	}
	if err != nil {
		return &TeardownError{Name: h.Name, Namespace: h.Namespace, Err: err}
	}

	if d.deletionTimeout > 0 {
		if err := d.waitDeleted(ctx, h); err != nil {
			return &TeardownError{Name: h.Name, Namespace: h.Namespace, Err: err}
		}
	}

	log.Info(fmt.Sprintf("deleted InferenceService %s", h.Name))
	return nil
}
