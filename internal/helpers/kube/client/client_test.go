package client

import (
	"context"
	"testing"

	finopsdatatypes "github.com/krateoplatformops/finops-data-types/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
)

var widgets = schema.GroupVersionResource{Group: "example.io", Version: "v1", Resource: "widgets"}

type widget struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              struct {
		Size int `json:"size"`
	} `json:"spec"`
}

func newDynamic() *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{widgets: "WidgetList"})
}

func TestCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	dyn := newDynamic()

	w := &widget{}
	w.APIVersion = "example.io/v1"
	w.Kind = "Widget"
	w.Name = "w1"
	w.Namespace = "ns"
	w.Spec.Size = 3

	un, err := ToUnstructured(w)
	require.NoError(t, err)

	_, err = CreateObj(ctx, un, "widgets", dyn)
	require.NoError(t, err)

	_, err = CreateObj(ctx, un, "widgets", dyn)
	assert.True(t, apierrors.IsAlreadyExists(err))

	ref := &finopsdatatypes.ObjectRef{Name: "w1", Namespace: "ns"}
	got, err := GetObj(ctx, ref, "example.io/v1", "widgets", dyn)
	require.NoError(t, err)

	back := &widget{}
	require.NoError(t, FromUnstructured(got, back))
	assert.Equal(t, 3, back.Spec.Size)

	require.NoError(t, DeleteObj(ctx, ref, "example.io/v1", "widgets", dyn))

	_, err = GetObj(ctx, ref, "example.io/v1", "widgets", dyn)
	assert.True(t, apierrors.IsNotFound(err), "wrapped error must keep the api status: %v", err)
}

func TestGetObjBadApiVersion(t *testing.T) {
	_, err := GetObj(context.Background(), &finopsdatatypes.ObjectRef{Name: "x", Namespace: "y"}, "a/b/c", "widgets", newDynamic())
	assert.Error(t, err)
}

func TestListPodsByLabel(t *testing.T) {
	clientset := fake.NewClientset(
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "match", Namespace: "ns", Labels: map[string]string{"app": "a"}}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "other", Namespace: "ns", Labels: map[string]string{"app": "b"}}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "elsewhere", Namespace: "ns2", Labels: map[string]string{"app": "a"}}},
	)

	pods, err := ListPodsByLabel(context.Background(), clientset, "ns", "app", "a")
	require.NoError(t, err)
	require.Len(t, pods, 1)
	assert.Equal(t, "match", pods[0].Name)
}
