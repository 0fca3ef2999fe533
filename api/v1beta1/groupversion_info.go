// +groupName=serving.kserve.io
// +versionName=v1beta1
package v1beta1

import (
	"reflect"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	// GroupVersion is group version of the KServe serving objects driven by this module
	GroupVersion = schema.GroupVersion{Group: "serving.kserve.io", Version: "v1beta1"}

	Kind             = reflect.TypeFor[InferenceService]().Name()
	ListKind         = Kind + "List"
	Resource         = "inferenceservices"
	GroupKind        = schema.GroupKind{Group: GroupVersion.Group, Kind: Kind}.String()
	KindAPIVersion   = Kind + "." + GroupVersion.String()
	GroupVersionKind = GroupVersion.WithKind(Kind)

	GroupVersionResource = GroupVersion.WithResource(Resource)
)

// Knative serving objects backing the predictor, only read for diagnostics.
var (
	KnativeGroupVersion         = schema.GroupVersion{Group: "serving.knative.dev", Version: "v1"}
	KnativeServiceResource      = KnativeGroupVersion.WithResource("services")
	KnativeServiceListKind      = "ServiceList"
	DefaultKnativeServiceSuffix = "-predictor-default"
)

const (
	// InferenceServiceLabel is set by KServe on every pod of an InferenceService.
	InferenceServiceLabel = "serving.kserve.io/inferenceservice"
)
