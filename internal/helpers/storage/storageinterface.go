package storage

import (
	"context"
	"fmt"
	"strings"
)

type StorageLabel string

const (
	FileStorage      StorageLabel = "file"
	ConfigMapStorage StorageLabel = "configmap"
)

func GetStorageSpecs() []StorageLabel {
	return []StorageLabel{
		FileStorage,
		ConfigMapStorage,
	}
}

// Source locates a request payload.
type Source struct {
	Label     StorageLabel
	Path      string
	Namespace string
	Name      string
	Key       string
}

func (s Source) String() string {
	switch s.Label {
	case ConfigMapStorage:
		return fmt.Sprintf("configmap://%s/%s/%s", s.Namespace, s.Name, s.Key)
	default:
		return s.Path
	}
}

// StorageInterface is implemented by every payload provider.
type StorageInterface interface {
	Load(ctx context.Context, src Source) ([]byte, error)
}

// ParseSource accepts a plain path, file://<path> or
// configmap://<namespace>/<name>/<key>.
func ParseSource(ref string) (Source, error) {
	if ref == "" {
		return Source{}, fmt.Errorf("empty payload source")
	}

	scheme, rest, found := strings.Cut(ref, "://")
	if !found {
		return Source{Label: FileStorage, Path: ref}, nil
	}

	switch StorageLabel(scheme) {
	case FileStorage:
		if rest == "" {
			return Source{}, fmt.Errorf("file source %q has no path", ref)
		}
		return Source{Label: FileStorage, Path: rest}, nil
	case ConfigMapStorage:
		parts := strings.Split(rest, "/")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return Source{}, fmt.Errorf("configmap source %q must be configmap://<namespace>/<name>/<key>", ref)
		}
		return Source{Label: ConfigMapStorage, Namespace: parts[0], Name: parts[1], Key: parts[2]}, nil
	}
	return Source{}, fmt.Errorf("unsupported payload source %q, supported: %v", scheme, GetStorageSpecs())
}
