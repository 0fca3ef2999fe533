package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	finopsdatatypes "github.com/krateoplatformops/finops-data-types/api/v1"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"kserve-lifecycle/api/v1beta1"
	clientHelper "kserve-lifecycle/internal/helpers/kube/client"
)

type Options struct {
	// KnativeServiceSuffix names the predictor knative Service: <name><suffix>.
	// Empty skips it.
	KnativeServiceSuffix string
}

// Diagnostics is a best-effort snapshot of a workload that did not become ready.
type Diagnostics struct {
	InferenceService map[string]any `json:"inferenceService,omitempty"`
	KnativeService   map[string]any `json:"knativeService,omitempty"`
	Pods             []corev1.Pod   `json:"pods,omitempty"`
	Errors           []string       `json:"errors,omitempty"`
}

// Collect never fails: every lookup error is recorded in Errors.
func Collect(ctx context.Context, dynClient dynamic.Interface, clientset kubernetes.Interface, ref *finopsdatatypes.ObjectRef, opts Options) *Diagnostics {
	d := &Diagnostics{}

	if dynClient != nil {
		isvc, err := clientHelper.GetObj(ctx, ref, v1beta1.GroupVersion.String(), v1beta1.Resource, dynClient)
		if err != nil {
			d.Errors = append(d.Errors, err.Error())
		} else {
			d.InferenceService = isvc.Object
		}

		if opts.KnativeServiceSuffix != "" {
			ksvcRef := &finopsdatatypes.ObjectRef{Name: ref.Name + opts.KnativeServiceSuffix, Namespace: ref.Namespace}
			ksvc, err := clientHelper.GetObj(ctx, ksvcRef, v1beta1.KnativeGroupVersion.String(), v1beta1.KnativeServiceResource.Resource, dynClient)
			if err != nil {
				d.Errors = append(d.Errors, err.Error())
			} else {
				d.KnativeService = ksvc.Object
			}
		}
	}

	if clientset != nil {
		pods, err := clientHelper.ListPodsByLabel(ctx, clientset, ref.Namespace, v1beta1.InferenceServiceLabel, ref.Name)
		if err != nil {
			d.Errors = append(d.Errors, err.Error())
		} else {
			d.Pods = pods
		}
	}

	return d
}

func (d *Diagnostics) Empty() bool {
	return d == nil || (d.InferenceService == nil && d.KnativeService == nil && len(d.Pods) == 0)
}

func (d *Diagnostics) String() string {
	if d == nil {
		return ""
	}
	var sb strings.Builder

	if d.InferenceService != nil {
		sb.WriteString(fmt.Sprintf("InferenceService status: %s\n", statusOf(d.InferenceService)))
	}
	if d.KnativeService != nil {
		sb.WriteString(fmt.Sprintf("Knative service status: %s\n", statusOf(d.KnativeService)))
	}
	sb.WriteString(fmt.Sprintf("Pods: %d\n", len(d.Pods)))
	sb.WriteString(podListPrinting(d.Pods))
	for _, e := range d.Errors {
		sb.WriteString(fmt.Sprintf("Diagnostics error: %s\n", e))
	}

	return sb.String()
}

func (d *Diagnostics) Log(log logging.Logger) {
	if d == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(d.String(), "\n"), "\n") {
		log.Info(line)
	}
}

func statusOf(obj map[string]any) string {
	status, ok := obj["status"]
	if !ok {
		return "<none>"
	}
	b, err := json.Marshal(status)
	if err != nil {
		return fmt.Sprintf("%v", status)
	}
	return string(b)
}

func podListPrinting(pods []corev1.Pod) string {
	var sb strings.Builder

	for _, pod := range pods {
		sb.WriteString(fmt.Sprintf("Namespace: %s, Name: %s, Phase: %s, Node: %s\n",
			pod.Namespace, pod.Name, pod.Status.Phase, pod.Spec.NodeName))
		for _, container := range pod.Spec.Containers {
			sb.WriteString(fmt.Sprintf("\tContainer: %s, image: %s, resources: %v\n", container.Name, container.Image, container.Resources))
		}
		failing := lo.Filter(pod.Status.Conditions, func(c corev1.PodCondition, _ int) bool {
			return c.Status == corev1.ConditionFalse
		})
		for _, condition := range failing {
			sb.WriteString(fmt.Sprintf("\tCondition %s is False: %s %s\n", condition.Type, condition.Reason, condition.Message))
		}
		for _, cs := range pod.Status.ContainerStatuses {
			switch {
			case cs.State.Waiting != nil:
				sb.WriteString(fmt.Sprintf("\tContainer %s waiting: %s %s (restarts: %d)\n", cs.Name, cs.State.Waiting.Reason, cs.State.Waiting.Message, cs.RestartCount))
			case cs.State.Terminated != nil:
				sb.WriteString(fmt.Sprintf("\tContainer %s terminated: %s exit code %d (restarts: %d)\n", cs.Name, cs.State.Terminated.Reason, cs.State.Terminated.ExitCode, cs.RestartCount))
			}
		}
	}

	return sb.String()
}
