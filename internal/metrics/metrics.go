package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// InitializeMetrics registers the relevant metrics.
func InitializeMetrics() {
	metrics.Registry.MustRegister(
		namespacesCreated,
		rbacObjectsCreated,
		namespaceListFallbacks,
		configuratorFailures,
	)
}

var (
	namespacesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsns_namespaces_created_total",
			Help: "Number of workspace namespaces created",
		}, []string{"flavor"},
	)
)

var (
	rbacObjectsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsns_rbac_objects_created_total",
			Help: "Number of RBAC objects created in workspace namespaces",
		}, []string{"kind"},
	)
)

var (
	namespaceListFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wsns_namespace_list_fallbacks_total",
			Help: "Number of namespace listings that were forbidden and fell back to the default namespace",
		},
	)
)

var (
	configuratorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsns_configurator_failures_total",
			Help: "Number of failed namespace configurator runs",
		}, []string{"configurator"},
	)
)

// ObserveNamespaceCreated increments the created namespaces metric of a flavor.
func ObserveNamespaceCreated(flavor string) {
	namespacesCreated.With(prometheus.Labels{"flavor": flavor}).Inc()
}

// ObserveRBACObjectCreated increments the created RBAC objects metric of a kind.
func ObserveRBACObjectCreated(kind string) {
	rbacObjectsCreated.With(prometheus.Labels{"kind": kind}).Inc()
}

// ObserveNamespaceListFallback increments the forbidden listings metric.
func ObserveNamespaceListFallback() {
	namespaceListFallbacks.Inc()
}

// ObserveConfiguratorFailure increments the failures metric of a configurator.
func ObserveConfiguratorFailure(configurator string) {
	configuratorFailures.With(prometheus.Labels{"configurator": configurator}).Inc()
}
