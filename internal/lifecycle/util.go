package lifecycle

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/util/wait"

	"kserve-lifecycle/api/v1beta1"
	"kserve-lifecycle/internal/helpers/diagnostics"
	"kserve-lifecycle/internal/helpers/inference"
	clientHelper "kserve-lifecycle/internal/helpers/kube/client"
)

func (d *Driver) get(ctx context.Context, h *Handle) (*v1beta1.InferenceService, error) {
	un, err := clientHelper.GetObj(ctx, h.Ref(), v1beta1.GroupVersion.String(), v1beta1.Resource, d.dynClient)
	if err != nil {
		return nil, err
	}

	isvc := &v1beta1.InferenceService{}
	if err := clientHelper.FromUnstructured(un, isvc); err != nil {
		return nil, fmt.Errorf("unable to convert InferenceService from unstructured: %w", err)
	}
	return isvc, nil
}

func readyMessage(isvc *v1beta1.InferenceService) string {
	cond := isvc.GetCondition(v1beta1.ConditionReady)
	if cond.Reason == "" && cond.Message == "" {
		return fmt.Sprintf("Ready=%s", cond.Status)
	}
	return fmt.Sprintf("Ready=%s %s %s", cond.Status, cond.Reason, cond.Message)
}

func (d *Driver) endpointFor(ctx context.Context, h *Handle, isvc *v1beta1.InferenceService) (*inference.Endpoint, error) {
	host, err := inference.HostFromURL(isvc.Status.URL)
	if err != nil {
		return nil, fmt.Errorf("ready InferenceService %s has no usable url: %w", h.Name, err)
	}
	if d.ingress == nil {
		return nil, fmt.Errorf("no ingress resolver configured")
	}
	address, err := d.ingress.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve ingress address: %w", err)
	}
	return &inference.Endpoint{
		Address:   address,
		Host:      host,
		ModelName: h.ModelName,
		Protocol:  d.protocol,
	}, nil
}

// collectDiagnostics runs on its own deadline so that the expired readiness
// wait does not cut it short.
func (d *Driver) collectDiagnostics(ctx context.Context, h *Handle) *diagnostics.Diagnostics {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.diagnosticsTimeout)
	defer cancel()

	return diagnostics.Collect(dctx, d.dynClient, d.clientset, h.Ref(), diagnostics.Options{
		KnativeServiceSuffix: d.knativeSuffix,
	})
}

func (d *Driver) waitDeleted(ctx context.Context, h *Handle) error {
	var lastErr error
	err := wait.PollUntilContextTimeout(ctx, d.pollInterval, d.deletionTimeout, true, func(ctx context.Context) (bool, error) {
		_, err := d.get(ctx, h)
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		lastErr = err
		return false, nil
	})
	if err != nil {
		if lastErr != nil {
			return fmt.Errorf("deletion not confirmed within %s: %w", d.deletionTimeout, lastErr)
		}
		return fmt.Errorf("deletion not confirmed within %s: object still present", d.deletionTimeout)
	}
	return nil
}
