package namespace

import (
	"context"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Flavor is the cluster specific way of handling the object a workspace
// namespace is represented by: a Namespace on Kubernetes, a Project on OpenShift.
type Flavor interface {
	Name() wsnsv1.Flavor
	// Get returns the namespace object, or nil if it does not exist or may not be read.
	Get(ctx context.Context, k8sClient client.Client, name string) (client.Object, error)
	// Create creates the namespace and returns false if it already existed.
	Create(ctx context.Context, k8sClient client.Client, name string) (bool, error)
	List(ctx context.Context, k8sClient client.Client, selector labels.Selector) ([]client.Object, error)
	// Attributes returns the attributes describing an existing namespace object.
	Attributes(object client.Object) map[string]string
	// CleanupLists returns empty lists of every kind managed for a workspace in its namespace.
	CleanupLists() []client.ObjectList
}

// FlavorFor returns the Flavor of the given name.
func FlavorFor(name wsnsv1.Flavor) (Flavor, bool) {
	switch name {
	case wsnsv1.Kubernetes:
		return &Kubernetes{}, true
	case wsnsv1.OpenShift:
		return &OpenShift{}, true
	default:
		return nil, false
	}
}

// phase returns the phase attribute of a namespace. Namespaces read before
// their status is populated are reported active.
func phase(namespacePhase corev1.NamespacePhase) string {
	if namespacePhase == "" {
		return string(corev1.NamespaceActive)
	}

	return string(namespacePhase)
}
