package client

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

// ListPodsByLabel returns the pods in namespace carrying label key=value.
func ListPodsByLabel(ctx context.Context, clientset kubernetes.Interface, namespace, key, value string) ([]corev1.Pod, error) {
	selector := labels.SelectorFromSet(labels.Set{key: value}).String()
	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("unable to list pods in namespace %s with selector %s: %w", namespace, selector, err)
	}
	return pods.Items, nil
}
