package rbac

import (
	"context"
	"fmt"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/metrics"
	"github.com/dana-team/wsns/internal/objectcontext"
	"github.com/go-logr/logr"
	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/client-go/discovery"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Bootstrapper prepares the service account of a workspace and the roles and
// bindings it needs inside the workspace namespace. It only ever adds the
// objects it owns; existing objects with the same names are left untouched.
type Bootstrapper struct {
	Client client.Client
	// Discovery is used to find out whether the cluster serves the metrics API.
	// When nil, the metrics role is never created.
	Discovery discovery.DiscoveryInterface
}

// Prepare makes sure the service account of spec exists in namespace, along
// with the base roles, the metrics role when supported and the bindings to
// every extra cluster role present on the cluster. Failing to create the
// service account aborts; other failures are collected and returned together.
func (b *Bootstrapper) Prepare(ctx context.Context, spec Spec, namespace string) error {
	logger := log.FromContext(ctx).WithValues("namespace", namespace, "serviceAccount", spec.ServiceAccountName)
	ctx = log.IntoContext(ctx, logger)

	if spec.ServiceAccountName == "" {
		return common.NewValidationError("a service account name is required to prepare workspace RBAC")
	}

	if err := b.ensure(ctx, composeServiceAccount(spec.ServiceAccountName, namespace)); err != nil {
		return common.NewInfrastructureError(fmt.Sprintf("failed to create service account %q in namespace %q", spec.ServiceAccountName, namespace), err)
	}

	roles := baseRoles()
	if b.metricsSupported(logger) {
		roles = append(roles, metricsRole())
	}

	var errs []error
	for _, role := range roles {
		if err := b.ensure(ctx, composeRole(role, namespace)); err != nil {
			errs = append(errs, fmt.Errorf("failed to create role %q: %v", role.name, err))
		}

		bindingName := BindingName(spec.ServiceAccountName, role.bindingSuffix)
		if err := b.ensure(ctx, composeRoleBinding(bindingName, namespace, spec.ServiceAccountName, roleKind, role.name)); err != nil {
			errs = append(errs, fmt.Errorf("failed to create rolebinding %q: %v", bindingName, err))
		}
	}

	for _, clusterRole := range spec.ExtraClusterRoles {
		exists, err := b.clusterRoleExists(ctx, clusterRole)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get clusterrole %q: %v", clusterRole, err))
			continue
		}
		if !exists {
			logger.Info("clusterrole does not exist, skipping its binding", "clusterRole", clusterRole)
			continue
		}

		bindingName := BindingName(spec.ServiceAccountName, clusterRole)
		if err := b.ensure(ctx, composeRoleBinding(bindingName, namespace, spec.ServiceAccountName, clusterRoleKind, clusterRole)); err != nil {
			errs = append(errs, fmt.Errorf("failed to create rolebinding %q: %v", bindingName, err))
		}
	}

	if err := utilerrors.NewAggregate(errs); err != nil {
		return common.NewInfrastructureError(fmt.Sprintf("failed to prepare RBAC of service account %q in namespace %q", spec.ServiceAccountName, namespace), err)
	}

	logger.Info("successfully prepared workspace RBAC")
	return nil
}

// ensure creates object unless it already exists. The object is never read or
// updated, so customizations of an existing object survive.
func (b *Bootstrapper) ensure(ctx context.Context, object client.Object) error {
	objectContext := objectcontext.ForObject(ctx, b.Client, object)
	if err := objectContext.EnsureCreate(); err != nil {
		return err
	}

	if objectContext.Created() {
		metrics.ObserveRBACObjectCreated(objectContext.GetKindName())
	}

	return nil
}

// clusterRoleExists returns false when the cluster role is missing or cannot be read.
func (b *Bootstrapper) clusterRoleExists(ctx context.Context, name string) (bool, error) {
	if err := b.Client.Get(ctx, types.NamespacedName{Name: name}, &rbacv1.ClusterRole{}); err != nil {
		if apierrors.IsNotFound(err) || apierrors.IsForbidden(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// metricsSupported asks the cluster whether it serves the metrics API. The
// answer is not cached since it may differ between calls.
func (b *Bootstrapper) metricsSupported(logger logr.Logger) bool {
	if b.Discovery == nil {
		return false
	}

	resources, err := b.Discovery.ServerResourcesForGroupVersion(wsnsv1.MetricsAPIGroupVersion)
	if err != nil {
		if !apierrors.IsNotFound(err) {
			logger.Error(err, "unable to discover the metrics API, skipping the metrics role")
		}
		return false
	}

	return resources != nil && len(resources.APIResources) > 0
}
