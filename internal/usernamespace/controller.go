package usernamespace

import (
	"context"
	"fmt"

	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/configurator"
	"github.com/dana-team/wsns/internal/objectcontext"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

// UserNamespaceReconciler keeps the namespaces provisioned for users
// configured, restoring the bootstrap objects if they are changed or deleted.
type UserNamespaceReconciler struct {
	client.Client
	Scheme        *runtime.Scheme
	Configurators []configurator.Configurator
}

// +kubebuilder:rbac:groups="",resources=namespaces,verbs=get;list;watch;create;patch;delete
// +kubebuilder:rbac:groups="",resources=secrets;configmaps;serviceaccounts,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=project.openshift.io,resources=projects;projectrequests,verbs=get;list;create

// SetupWithManager sets up the controller by specifying the following: controller is managing the reconciliation
// of managed namespaces and is watching the managed secrets and configmaps in them, enqueueing their namespace.
func (r *UserNamespaceReconciler) SetupWithManager(mgr ctrl.Manager) error {
	managed := builder.WithPredicates(predicate.NewPredicateFuncs(common.IsManaged))

	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.Namespace{}, managed).
		Watches(&corev1.Secret{}, handler.EnqueueRequestsFromMapFunc(namespaceOf), managed).
		Watches(&corev1.ConfigMap{}, handler.EnqueueRequestsFromMapFunc(namespaceOf), managed).
		Complete(r)
}

func (r *UserNamespaceReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx).WithName("controllers").WithName("UserNamespace").WithValues("ns", req.Name)
	logger.Info("starting to reconcile")

	nsObject, err := objectcontext.New(ctx, r.Client, types.NamespacedName{Name: req.Name}, &corev1.Namespace{})
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("failed to get object %q: %v", req.Name, err)
	}

	if !nsObject.IsPresent() {
		logger.Info("resource not found. Ignoring since object must be deleted")
		return ctrl.Result{}, nil
	}

	if common.DeletionTimeStampExists(nsObject.Object) || !common.IsManaged(nsObject.Object) {
		return ctrl.Result{}, nil
	}

	rctx, ok := configurator.ContextFromNamespace(nsObject.Object)
	if !ok {
		logger.Info("namespace does not identify its user, skipping")
		return ctrl.Result{}, nil
	}

	if err := configurator.Run(log.IntoContext(ctx, logger), r.Configurators, rctx, req.Name); err != nil {
		return ctrl.Result{}, err
	}
	logger.Info("successfully reconciled namespace", "namespace", req.Name)

	return ctrl.Result{}, nil
}

// namespaceOf maps an object to the namespace it lives in.
func namespaceOf(_ context.Context, object client.Object) []reconcile.Request {
	if object.GetNamespace() == "" {
		return nil
	}

	return []reconcile.Request{{NamespacedName: types.NamespacedName{Name: object.GetNamespace()}}}
}
