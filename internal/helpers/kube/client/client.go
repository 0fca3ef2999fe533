package client

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/utils/ptr"

	finopsdatatypes "github.com/krateoplatformops/finops-data-types/api/v1"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func New(rc *rest.Config) (*dynamic.DynamicClient, error) {
	config := *rc
	config.APIPath = "/api"
	config.NegotiatedSerializer = serializer.NewCodecFactory(scheme.Scheme)
	config.UserAgent = rest.DefaultKubernetesUserAgent()

	return dynamic.NewForConfig(&config)
}

func resourceFor(apiVersion string, resource string) (schema.GroupVersionResource, error) {
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return schema.GroupVersionResource{}, fmt.Errorf("unable to parse GroupVersion from ApiVersion %q: %w", apiVersion, err)
	}
	return schema.GroupVersionResource{
		Group:    gv.Group,
		Version:  gv.Version,
		Resource: resource,
	}, nil
}

func GetObj(ctx context.Context, cr *finopsdatatypes.ObjectRef, ApiVersion string, Resource string, dynClient dynamic.Interface) (*unstructured.Unstructured, error) {
	gvr, err := resourceFor(ApiVersion, Resource)
	if err != nil {
		return nil, err
	}
	res, err := dynClient.Resource(gvr).Namespace(cr.Namespace).Get(ctx, cr.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve resource %s with name %s in namespace %s, with apiVersion %s: %w", Resource, cr.Name, cr.Namespace, ApiVersion, err)
	}
	return res, nil
}

func CreateObj(ctx context.Context, obj *unstructured.Unstructured, Resource string, dynClient dynamic.Interface) (*unstructured.Unstructured, error) {
	gvr, err := resourceFor(obj.GetAPIVersion(), Resource)
	if err != nil {
		return nil, err
	}
	return dynClient.Resource(gvr).Namespace(obj.GetNamespace()).Create(ctx, obj, metav1.CreateOptions{})
}

func DeleteObj(ctx context.Context, cr *finopsdatatypes.ObjectRef, ApiVersion string, Resource string, dynClient dynamic.Interface) error {
	gvr, err := resourceFor(ApiVersion, Resource)
	if err != nil {
		return err
	}
	return dynClient.Resource(gvr).Namespace(cr.Namespace).Delete(ctx, cr.Name, metav1.DeleteOptions{
		PropagationPolicy: ptr.To(metav1.DeletePropagationForeground),
	})
}

func ToUnstructured(obj any) (*unstructured.Unstructured, error) {
	data, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to unstructured: %v", err)
	}
	return &unstructured.Unstructured{Object: data}, nil
}

func FromUnstructured(un *unstructured.Unstructured, obj any) error {
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(un.Object, obj); err != nil {
		return fmt.Errorf("failed to convert from unstructured: %v", err)
	}
	return nil
}
