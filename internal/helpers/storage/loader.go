package storage

import (
	"context"
	"fmt"
	"os"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

type FileProvider struct{}

func (FileProvider) Load(_ context.Context, src Source) ([]byte, error) {
	b, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to read payload file %s: %w", src.Path, err)
	}
	return b, nil
}

type ConfigMapProvider struct {
	Clientset kubernetes.Interface
}

func (p ConfigMapProvider) Load(ctx context.Context, src Source) ([]byte, error) {
	if p.Clientset == nil {
		return nil, fmt.Errorf("no kubernetes client to read %s", src)
	}
	cm, err := p.Clientset.CoreV1().ConfigMaps(src.Namespace).Get(ctx, src.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve configmap %s/%s: %w", src.Namespace, src.Name, err)
	}
	if v, ok := cm.Data[src.Key]; ok {
		return []byte(v), nil
	}
	if v, ok := cm.BinaryData[src.Key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("configmap %s/%s has no key %s", src.Namespace, src.Name, src.Key)
}

// Loader dispatches a Source to its provider.
type Loader struct {
	providers map[StorageLabel]StorageInterface
}

func NewLoader(clientset kubernetes.Interface) *Loader {
	return &Loader{providers: map[StorageLabel]StorageInterface{
		FileStorage:      FileProvider{},
		ConfigMapStorage: ConfigMapProvider{Clientset: clientset},
	}}
}

func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	p, ok := l.providers[src.Label]
	if !ok {
		return nil, fmt.Errorf("no provider for storage %q", src.Label)
	}
	return p.Load(ctx, src)
}

// LoadRef parses ref and loads it.
func (l *Loader) LoadRef(ctx context.Context, ref string) ([]byte, error) {
	src, err := ParseSource(ref)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, src)
}
