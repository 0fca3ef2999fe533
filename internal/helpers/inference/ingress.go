package inference

import (
	"context"
	"fmt"
	"net/url"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// IngressResolver finds the address inference traffic is sent to.
type IngressResolver struct {
	clientset kubernetes.Interface
	namespace string
	name      string
	override  string
}

func NewIngressResolver(clientset kubernetes.Interface, namespace, name, override string) *IngressResolver {
	return &IngressResolver{
		clientset: clientset,
		namespace: namespace,
		name:      name,
		override:  override,
	}
}

// Resolve returns the override when set, else the gateway Service address:
// load balancer hostname, then load balancer IP, then cluster IP.
func (r *IngressResolver) Resolve(ctx context.Context) (string, error) {
	if r.override != "" {
		return NormalizeURL(r.override), nil
	}
	if r.clientset == nil {
		return "", fmt.Errorf("no ingress override and no kubernetes client to look up the gateway")
	}

	svc, err := r.clientset.CoreV1().Services(r.namespace).Get(ctx, r.name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("unable to retrieve ingress service %s/%s: %w", r.namespace, r.name, err)
	}

	for _, ing := range svc.Status.LoadBalancer.Ingress {
		if ing.Hostname != "" {
			return NormalizeURL(ing.Hostname), nil
		}
		if ing.IP != "" {
			return NormalizeURL(ing.IP), nil
		}
	}
	if svc.Spec.ClusterIP == "" || svc.Spec.ClusterIP == "None" {
		return "", fmt.Errorf("ingress service %s/%s exposes no address", r.namespace, r.name)
	}
	return NormalizeURL(svc.Spec.ClusterIP), nil
}

// HostFromURL returns the host[:port] of the status url reported by KServe.
func HostFromURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unable to parse url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return u.Host, nil
}
