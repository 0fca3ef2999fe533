package scenario

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"kserve-lifecycle/api/v1beta1"
	"kserve-lifecycle/internal/helpers/verify"
)

const (
	AIXServiceName    = "aix-explainer"
	AIXPredictorImage = "aipipeline/rf-predictor:0.4.0"
	AIXMinCoverage    = 0.6
	AIXExpectedClass  = 2
)

func smallResources() corev1.ResourceRequirements {
	return corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse("10m"),
			corev1.ResourceMemory: resource.MustParse("128Mi"),
		},
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse("100m"),
			corev1.ResourceMemory: resource.MustParse("256Mi"),
		},
	}
}

// AIXExplainer is a random forest MNIST predictor with a LIME image explainer.
func AIXExplainer(name, namespace string) *v1beta1.InferenceService {
	return &v1beta1.InferenceService{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1beta1.GroupVersion.String(),
			Kind:       v1beta1.Kind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: v1beta1.InferenceServiceSpec{
			Predictor: v1beta1.PredictorSpec{
				Containers: []corev1.Container{
					{
						Name:      "predictor",
						Image:     AIXPredictorImage,
						Command:   []string{"python", "-m", "rfserver", "--model_name", name},
						Resources: smallResources(),
					},
				},
			},
			Explainer: &v1beta1.ExplainerSpec{
				ComponentExtensionSpec: v1beta1.ComponentExtensionSpec{
					MinReplicas: ptr.To(1),
				},
				AIX: &v1beta1.AIXExplainerSpec{
					Name:      "explainer",
					Type:      v1beta1.AIXLimeImageExplainer,
					Resources: smallResources(),
				},
			},
		},
	}
}

// AIXExpectations: the digit in the MNIST sample is a 2 and the LIME mask
// covers most of the image.
func AIXExpectations() verify.Expectations {
	return verify.Expectations{
		Predictions:     [][]float64{{0, 0, 1, 0, 0, 0, 0, 0, 0, 0}},
		Class:           ptr.To(AIXExpectedClass),
		MinMaskCoverage: AIXMinCoverage,
	}
}
