package configurator

import (
	"context"
	"fmt"

	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/metrics"
	"github.com/dana-team/wsns/internal/naming"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Configurator is a provisioning step applied to a workspace namespace after
// it is created. Implementations must be idempotent and must not keep state
// between calls.
type Configurator interface {
	Name() string
	Configure(ctx context.Context, rctx naming.Context, namespace string) error
}

// Options holds the configuration shared by the default configurators.
type Options struct {
	// Labels are added to the namespace when LabelNamespaces is set.
	Labels          map[string]string
	LabelNamespaces bool
	// Annotations are added to the namespace when AnnotateNamespaces is set.
	// Their values may carry placeholders.
	Annotations        map[string]string
	AnnotateNamespaces bool
	// Template is the namespace template recorded on the namespace.
	Template string
	// SCMServiceAccountName is the service account used by the SCM integration.
	// No service account is created when empty.
	SCMServiceAccountName string
}

// Defaults returns the configurators applied to every workspace namespace, in order.
func Defaults(k8sClient client.Client, opts Options) []Configurator {
	return []Configurator{
		&MetaConfigurator{Client: k8sClient, Options: opts},
		&CredentialsSecretConfigurator{Client: k8sClient},
		&PreferencesConfigMapConfigurator{Client: k8sClient},
		&UserProfileConfigurator{Client: k8sClient},
		&ServiceAccountConfigurator{Client: k8sClient, ServiceAccountName: opts.SCMServiceAccountName},
	}
}

// Run applies the configurators to namespace in order, stopping at the first failure.
func Run(ctx context.Context, configurators []Configurator, rctx naming.Context, namespace string) error {
	logger := log.FromContext(ctx).WithValues("namespace", namespace)

	for _, configurator := range configurators {
		if err := configurator.Configure(ctx, rctx, namespace); err != nil {
			metrics.ObserveConfiguratorFailure(configurator.Name())
			return common.NewInfrastructureError(fmt.Sprintf("failed to configure namespace %q with %s", namespace, configurator.Name()), err)
		}
		logger.V(1).Info("successfully configured namespace", "configurator", configurator.Name())
	}

	return nil
}
