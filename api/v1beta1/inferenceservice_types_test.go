package v1beta1

import (
	"testing"

	prv1 "github.com/krateoplatformops/provider-runtime/apis/common/v1"
	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func validService() *InferenceService {
	return &InferenceService{
		ObjectMeta: metav1.ObjectMeta{Name: "aix-explainer", Namespace: "kserve-ci-test"},
		Spec: InferenceServiceSpec{
			Predictor: PredictorSpec{
				Containers: []corev1.Container{{Name: "predictor", Image: "aipipeline/rf-predictor:0.4.0"}},
			},
			Explainer: &ExplainerSpec{
				AIX: &AIXExplainerSpec{Name: "explainer", Type: AIXLimeImageExplainer},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*InferenceService)
		wantErr bool
	}{
		{name: "valid", mutate: func(*InferenceService) {}},
		{name: "no explainer", mutate: func(s *InferenceService) { s.Spec.Explainer = nil }},
		{name: "missing name", mutate: func(s *InferenceService) { s.Name = "" }, wantErr: true},
		{name: "missing namespace", mutate: func(s *InferenceService) { s.Namespace = "" }, wantErr: true},
		{name: "no containers", mutate: func(s *InferenceService) { s.Spec.Predictor.Containers = nil }, wantErr: true},
		{name: "no image", mutate: func(s *InferenceService) { s.Spec.Predictor.Containers[0].Image = "" }, wantErr: true},
		{name: "empty explainer", mutate: func(s *InferenceService) { s.Spec.Explainer = &ExplainerSpec{} }, wantErr: true},
		{name: "two explainers", mutate: func(s *InferenceService) {
			s.Spec.Explainer.Alibi = &AlibiExplainerSpec{Type: AlibiAnchorsImageExplainer}
		}, wantErr: true},
		{name: "aix without type", mutate: func(s *InferenceService) { s.Spec.Explainer.AIX.Type = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := validService()
			tt.mutate(svc)
			err := svc.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsReady(t *testing.T) {
	svc := validService()
	assert.False(t, svc.IsReady())

	svc.Status.Conditions = []prv1.Condition{
		{Type: ConditionPredictorReady, Status: metav1.ConditionTrue},
		{Type: ConditionReady, Status: metav1.ConditionFalse},
	}
	assert.False(t, svc.IsReady())

	svc.Status.Conditions[1].Status = metav1.ConditionTrue
	assert.True(t, svc.IsReady())
}

func TestSetDefaults(t *testing.T) {
	svc := validService()
	svc.SetDefaults()
	assert.Equal(t, "serving.kserve.io/v1beta1", svc.APIVersion)
	assert.Equal(t, "InferenceService", svc.Kind)
}
