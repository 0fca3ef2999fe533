package v1beta1

import (
	"fmt"

	prv1 "github.com/krateoplatformops/provider-runtime/apis/common/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// InferenceService is the deployment descriptor submitted to the control plane.
// Only the subset of the KServe schema the driver needs is modelled; the
// control plane owns the full schema.
type InferenceService struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   InferenceServiceSpec   `json:"spec,omitempty"`
	Status InferenceServiceStatus `json:"status,omitempty"`
}

type InferenceServiceSpec struct {
	Predictor PredictorSpec  `json:"predictor"`
	Explainer *ExplainerSpec `json:"explainer,omitempty"`
}

// ComponentExtensionSpec holds the scaling knobs shared by every component.
type ComponentExtensionSpec struct {
	MinReplicas *int `json:"minReplicas,omitempty"`
	MaxReplicas int  `json:"maxReplicas,omitempty"`
	// Per-request timeout in seconds enforced by the component
	TimeoutSeconds *int64 `json:"timeout,omitempty"`
}

type PredictorSpec struct {
	ComponentExtensionSpec `json:",inline"`
	Containers             []corev1.Container `json:"containers,omitempty"`
}

// ExplainerSpec follows a "1-of" semantic: exactly one of AIX, Alibi or
// Containers must be set.
type ExplainerSpec struct {
	ComponentExtensionSpec `json:",inline"`
	AIX                    *AIXExplainerSpec   `json:"aix,omitempty"`
	Alibi                  *AlibiExplainerSpec `json:"alibi,omitempty"`
	Containers             []corev1.Container  `json:"containers,omitempty"`
}

type AIXExplainerType string

const (
	AIXLimeImageExplainer AIXExplainerType = "LimeImages"
)

type AIXExplainerSpec struct {
	Name           string                      `json:"name,omitempty"`
	Type           AIXExplainerType            `json:"type"`
	StorageURI     string                      `json:"storageUri,omitempty"`
	RuntimeVersion string                      `json:"runtimeVersion,omitempty"`
	Resources      corev1.ResourceRequirements `json:"resources,omitempty"`
	Config         map[string]string           `json:"config,omitempty"`
}

type AlibiExplainerType string

const (
	AlibiAnchorsTabularExplainer AlibiExplainerType = "AnchorTabular"
	AlibiAnchorsImageExplainer   AlibiExplainerType = "AnchorImages"
	AlibiAnchorsTextExplainer    AlibiExplainerType = "AnchorText"
)

type AlibiExplainerSpec struct {
	Name           string                      `json:"name,omitempty"`
	Type           AlibiExplainerType          `json:"type"`
	StorageURI     string                      `json:"storageUri,omitempty"`
	RuntimeVersion string                      `json:"runtimeVersion,omitempty"`
	Resources      corev1.ResourceRequirements `json:"resources,omitempty"`
	Config         map[string]string           `json:"config,omitempty"`
}

type ComponentType string

const (
	PredictorComponent ComponentType = "predictor"
	ExplainerComponent ComponentType = "explainer"
)

const (
	ConditionReady          prv1.ConditionType = "Ready"
	ConditionPredictorReady prv1.ConditionType = "PredictorReady"
	ConditionExplainerReady prv1.ConditionType = "ExplainerReady"
	ConditionIngressReady   prv1.ConditionType = "IngressReady"
)

type ComponentStatusSpec struct {
	LatestReadyRevision   string `json:"latestReadyRevision,omitempty"`
	LatestCreatedRevision string `json:"latestCreatedRevision,omitempty"`
	URL                   string `json:"url,omitempty"`
}

type InferenceServiceStatus struct {
	prv1.ConditionedStatus `json:",inline"`
	URL                    string                                `json:"url,omitempty"`
	Components             map[ComponentType]ComponentStatusSpec `json:"components,omitempty"`
	ObservedGeneration     int64                                 `json:"observedGeneration,omitempty"`
}

func (mg *InferenceService) GetCondition(ct prv1.ConditionType) prv1.Condition {
	return mg.Status.GetCondition(ct)
}

// IsReady reports whether the control plane marked the service Ready.
func (mg *InferenceService) IsReady() bool {
	return mg.GetCondition(ConditionReady).Status == metav1.ConditionTrue
}

// Validate rejects descriptors the control plane would refuse or that the
// driver could never verify.
func (mg *InferenceService) Validate() error {
	if mg.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if mg.Namespace == "" {
		return fmt.Errorf("metadata.namespace is required")
	}
	if len(mg.Spec.Predictor.Containers) == 0 {
		return fmt.Errorf("spec.predictor.containers must not be empty")
	}
	for i, c := range mg.Spec.Predictor.Containers {
		if c.Image == "" {
			return fmt.Errorf("spec.predictor.containers[%d].image is required", i)
		}
	}
	if mg.Spec.Explainer != nil {
		return mg.Spec.Explainer.validate()
	}
	return nil
}

func (e *ExplainerSpec) validate() error {
	set := 0
	if e.AIX != nil {
		set++
		if e.AIX.Type == "" {
			return fmt.Errorf("spec.explainer.aix.type is required")
		}
	}
	if e.Alibi != nil {
		set++
		if e.Alibi.Type == "" {
			return fmt.Errorf("spec.explainer.alibi.type is required")
		}
	}
	if len(e.Containers) > 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("spec.explainer must set exactly one of aix, alibi or containers, got %d", set)
	}
	return nil
}

// SetDefaults fills in the type meta so the object can be sent as is.
func (mg *InferenceService) SetDefaults() {
	if mg.APIVersion == "" {
		mg.APIVersion = GroupVersion.String()
	}
	if mg.Kind == "" {
		mg.Kind = Kind
	}
}
