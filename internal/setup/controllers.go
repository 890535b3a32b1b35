package setup

import (
	"fmt"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/config"
	"github.com/dana-team/wsns/internal/configurator"
	"github.com/dana-team/wsns/internal/namespace"
	"github.com/dana-team/wsns/internal/namespacedb"
	"github.com/dana-team/wsns/internal/naming"
	"github.com/dana-team/wsns/internal/rbac"
	. "github.com/dana-team/wsns/internal/usernamespace"
	. "github.com/dana-team/wsns/internal/workspacenamespace"
	"k8s.io/client-go/discovery"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/manager"
)

// Provisioner builds the namespace provisioner described by cfg, recording
// workspace namespaces and user preferences in ndb.
func Provisioner(cfg *config.Config, k8sClient client.Client, discoveryClient discovery.DiscoveryInterface,
	ndb *namespacedb.NamespaceDB) (*namespace.Provisioner, error) {
	flavor, ok := namespace.FlavorFor(cfg.Flavor)
	if !ok {
		return nil, common.NewConfigurationError(fmt.Sprintf("unknown flavor %q", cfg.Flavor))
	}

	resolver, err := naming.NewResolver(cfg.NamespaceTemplate, cfg.AllowUserDefinedNamespaces, ndb, ndb)
	if err != nil {
		return nil, err
	}

	configurators := configurator.Defaults(k8sClient, configurator.Options{
		Labels:                cfg.NamespaceLabels,
		LabelNamespaces:       cfg.LabelNamespaces,
		Annotations:           cfg.NamespaceAnnotations,
		AnnotateNamespaces:    cfg.AnnotateNamespaces,
		Template:              cfg.NamespaceTemplate,
		SCMServiceAccountName: cfg.SCMServiceAccount,
	})

	// the configured owner annotations are only set when annotating is enabled,
	// the user id annotation is always set
	ownerAnnotations := map[string]string{wsnsv1.UserID: naming.UserIDPlaceholder}
	if cfg.AnnotateNamespaces {
		ownerAnnotations = cfg.NamespaceAnnotations
	}

	return &namespace.Provisioner{
		Client:        k8sClient,
		Flavor:        flavor,
		Resolver:      resolver,
		Configurators: configurators,
		Bootstrapper:  &rbac.Bootstrapper{Client: k8sClient, Discovery: discoveryClient},
		Workspaces:    ndb,
		Preferences:   ndb,
		Options: namespace.Options{
			AllowCreation:           cfg.AllowNamespaceCreation,
			Labels:                  cfg.NamespaceLabels,
			Annotations:             ownerAnnotations,
			WorkspaceServiceAccount: cfg.WorkspaceServiceAccount,
			ClusterRoles:            cfg.ClusterRoles,
		},
	}, nil
}

// Controllers sets up the different controllers with the manager.
func Controllers(mgr manager.Manager, provisioner *namespace.Provisioner) error {
	if err := (&UserNamespaceReconciler{
		Client:        mgr.GetClient(),
		Scheme:        mgr.GetScheme(),
		Configurators: provisioner.Configurators,
	}).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to create controller %q: %v", "UserNamespace", err)
	}

	if err := (&WorkspaceNamespaceReconciler{
		Client:      mgr.GetClient(),
		Scheme:      mgr.GetScheme(),
		Provisioner: provisioner,
	}).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to create controller %q: %v", "WorkspaceNamespace", err)
	}

	return nil
}
