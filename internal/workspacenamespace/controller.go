package workspacenamespace

import (
	"context"
	"fmt"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/namespace"
	"github.com/dana-team/wsns/internal/naming"
	"github.com/dana-team/wsns/internal/objectcontext"
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// WorkspaceNamespaceReconciler reconciles a WorkspaceNamespace object
type WorkspaceNamespaceReconciler struct {
	client.Client
	Scheme      *runtime.Scheme
	Provisioner *namespace.Provisioner
}

// +kubebuilder:rbac:groups=wsns.dana.io,resources=workspacenamespaces,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=wsns.dana.io,resources=workspacenamespaces/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=wsns.dana.io,resources=workspacenamespaces/finalizers,verbs=update
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=list;delete
// +kubebuilder:rbac:groups="",resources=services;persistentvolumeclaims,verbs=list;delete
// +kubebuilder:rbac:groups=networking.k8s.io,resources=ingresses,verbs=list;delete
// +kubebuilder:rbac:groups=route.openshift.io,resources=routes,verbs=list;delete

// SetupWithManager sets up the controller by specifying the following: controller is managing the reconciliation
// of WorkspaceNamespace objects, providing the namespace each of them requests.
func (r *WorkspaceNamespaceReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&wsnsv1.WorkspaceNamespace{}).
		Complete(r)
}

func (r *WorkspaceNamespaceReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx).WithName("controllers").WithName("WorkspaceNamespace").WithValues("wsns", req.Name)
	ctx = log.IntoContext(ctx, logger)
	logger.Info("starting to reconcile")

	wsnsObject, err := objectcontext.New(ctx, r.Client, req.NamespacedName, &wsnsv1.WorkspaceNamespace{})
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("failed to get object %q: %v", req.Name, err)
	}

	if !wsnsObject.IsPresent() {
		logger.Info("resource not found. Ignoring since object must be deleted")
		return ctrl.Result{}, nil
	}

	if common.DeletionTimeStampExists(wsnsObject.Object) {
		return r.cleanup(ctx, wsnsObject)
	}

	if !controllerutil.ContainsFinalizer(wsnsObject.Object, wsnsv1.WorkspaceNamespaceFinalizer) {
		err := wsnsObject.UpdateObject(func(object client.Object, log logr.Logger) (client.Object, logr.Logger) {
			controllerutil.AddFinalizer(object, wsnsv1.WorkspaceNamespaceFinalizer)
			return object, log.WithValues("added finalizer", wsnsv1.WorkspaceNamespaceFinalizer)
		})
		if err != nil {
			return ctrl.Result{}, fmt.Errorf("failed to add finalizer to %q: %v", req.Name, err)
		}
	}

	return r.provide(ctx, wsnsObject)
}

// provide gets or creates the namespace of the workspace and reports it in
// the status, along with the other namespaces of its user.
func (r *WorkspaceNamespaceReconciler) provide(ctx context.Context, wsnsObject *objectcontext.ObjectContext) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	wsns := wsnsObject.Object.(*wsnsv1.WorkspaceNamespace)
	rctx := contextOf(wsns)

	if wsns.Status.Namespace == "" && wsns.Spec.Namespace != "" {
		if err := r.Provisioner.Claim(ctx, rctx, wsns.Spec.Namespace); err != nil {
			return r.fail(ctx, wsnsObject, err)
		}
	}

	access, err := r.Provisioner.GetOrCreate(ctx, rctx)
	if err != nil {
		return r.fail(ctx, wsnsObject, err)
	}

	current, err := r.Provisioner.Describe(ctx, access.Name())
	if err != nil {
		return r.fail(ctx, wsnsObject, err)
	}

	available, err := r.Provisioner.List(ctx, rctx)
	if err != nil {
		return r.fail(ctx, wsnsObject, err)
	}

	status := wsnsv1.WorkspaceNamespaceStatus{
		Phase:          wsnsv1.Ready,
		Namespace:      access.Name(),
		NamespacePhase: current.Attributes[wsnsv1.PhaseAttribute],
	}
	for _, meta := range available {
		status.Namespaces = append(status.Namespaces, wsnsv1.NamespaceInfo{Name: meta.Name, Attributes: meta.Attributes})
	}

	if err := r.updateStatus(ctx, wsnsObject, status); err != nil {
		return ctrl.Result{}, err
	}
	logger.Info("successfully reconciled workspace namespace", "namespace", access.Name(), "created", access.Created())

	return ctrl.Result{}, nil
}

// cleanup deletes the objects of the workspace from its namespace, and the
// namespace itself when requested, before releasing the finalizer.
func (r *WorkspaceNamespaceReconciler) cleanup(ctx context.Context, wsnsObject *objectcontext.ObjectContext) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	wsns := wsnsObject.Object.(*wsnsv1.WorkspaceNamespace)

	if !controllerutil.ContainsFinalizer(wsns, wsnsv1.WorkspaceNamespaceFinalizer) {
		return ctrl.Result{}, nil
	}

	if name := wsns.Status.Namespace; name != "" {
		if err := r.Provisioner.Open(name).Cleanup(ctx, wsns.Spec.WorkspaceID); err != nil {
			return ctrl.Result{}, err
		}

		if wsns.Spec.DeleteNamespace {
			if _, err := r.Provisioner.DeleteIfManaged(ctx, name); err != nil {
				return ctrl.Result{}, err
			}
		}
	}

	err := wsnsObject.UpdateObject(func(object client.Object, log logr.Logger) (client.Object, logr.Logger) {
		controllerutil.RemoveFinalizer(object, wsnsv1.WorkspaceNamespaceFinalizer)
		return object, log.WithValues("removed finalizer", wsnsv1.WorkspaceNamespaceFinalizer)
	})
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("failed to remove finalizer from %q: %v", wsnsObject.Name(), err)
	}
	logger.Info("successfully cleaned up workspace namespace")

	return ctrl.Result{}, nil
}

// fail reports err in the status. Validation and configuration errors are not
// retried, as they only go away once the object or the operator changes.
func (r *WorkspaceNamespaceReconciler) fail(ctx context.Context, wsnsObject *objectcontext.ObjectContext, err error) (ctrl.Result, error) {
	log.FromContext(ctx).Error(err, "failed to provide workspace namespace")

	status := *wsnsObject.Object.(*wsnsv1.WorkspaceNamespace).Status.DeepCopy()
	status.Phase = wsnsv1.Failed
	status.Message = err.Error()
	if statusErr := r.updateStatus(ctx, wsnsObject, status); statusErr != nil {
		return ctrl.Result{}, statusErr
	}

	if common.IsValidationError(err) || common.IsConfigurationError(err) {
		return ctrl.Result{}, nil
	}

	return ctrl.Result{}, err
}

// updateStatus writes status to the object if it differs from its current one.
func (r *WorkspaceNamespaceReconciler) updateStatus(ctx context.Context, wsnsObject *objectcontext.ObjectContext, status wsnsv1.WorkspaceNamespaceStatus) error {
	wsns := wsnsObject.Object.(*wsnsv1.WorkspaceNamespace)
	if equality.Semantic.DeepEqual(wsns.Status, status) {
		return nil
	}

	wsns.Status = status
	if err := r.Status().Update(ctx, wsns); err != nil {
		return fmt.Errorf("failed to update status of %q: %v", wsns.Name, err)
	}

	return nil
}

func contextOf(wsns *wsnsv1.WorkspaceNamespace) naming.Context {
	return naming.Context{
		WorkspaceID: wsns.Spec.WorkspaceID,
		UserID:      wsns.Spec.UserID,
		UserName:    wsns.Spec.UserName,
	}
}
