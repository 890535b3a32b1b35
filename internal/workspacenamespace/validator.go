package workspacenamespace

import (
	"context"
	"fmt"
	"net/http"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/namespace"
	admissionv1 "k8s.io/api/admission/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

type WorkspaceNamespaceValidator struct {
	Client      client.Client
	Decoder     admission.Decoder
	Provisioner *namespace.Provisioner
}

// +kubebuilder:webhook:path=/validate-v1-workspacenamespace,mutating=false,sideEffects=None,failurePolicy=fail,groups="wsns.dana.io",resources=workspacenamespaces,verbs=create;update,versions=v1,name=workspacenamespace.wsns.dana.io,admissionReviewVersions=v1

// Handle implements the validation webhook
func (v *WorkspaceNamespaceValidator) Handle(ctx context.Context, req admission.Request) admission.Response {
	logger := log.FromContext(ctx).WithValues("webhook", "WorkspaceNamespace Webhook", "Name", req.Name)
	ctx = log.IntoContext(ctx, logger)
	logger.Info("webhook request received")

	wsns := &wsnsv1.WorkspaceNamespace{}
	if err := v.Decoder.DecodeRaw(req.Object, wsns); err != nil {
		logger.Error(err, "failed to decode object", "request object", req.Object)
		return admission.Errored(http.StatusBadRequest, err)
	}

	switch req.Operation {
	case admissionv1.Create:
		return v.handleCreate(ctx, wsns)
	case admissionv1.Update:
		oldWSNS := &wsnsv1.WorkspaceNamespace{}
		if err := v.Decoder.DecodeRaw(req.OldObject, oldWSNS); err != nil {
			logger.Error(err, "failed to decode object", "request object", req.OldObject)
			return admission.Errored(http.StatusBadRequest, err)
		}
		return v.handleUpdate(ctx, wsns, oldWSNS)
	}

	return admission.Allowed("all validations passed")
}

// handleCreate implements the non-boilerplate logic of the validator, allowing it to be more easily unit
// tested (i.e. without constructing a full admission.Request).
func (v *WorkspaceNamespaceValidator) handleCreate(ctx context.Context, wsns *wsnsv1.WorkspaceNamespace) admission.Response {
	if response := validateIdentity(wsns); !response.Allowed {
		return response
	}

	if wsns.Spec.Namespace != "" {
		return v.validateRequested(ctx, wsns)
	}

	return admission.Allowed("all validations passed")
}

// handleUpdate denies changing the workspace and user of the object, and the
// requested namespace once a namespace was provided.
func (v *WorkspaceNamespaceValidator) handleUpdate(ctx context.Context, wsns, oldWSNS *wsnsv1.WorkspaceNamespace) admission.Response {
	if wsns.Spec.WorkspaceID != oldWSNS.Spec.WorkspaceID ||
		wsns.Spec.UserID != oldWSNS.Spec.UserID ||
		wsns.Spec.UserName != oldWSNS.Spec.UserName {
		return admission.Denied("workspaceID, userID and userName are immutable")
	}

	if wsns.Spec.Namespace == oldWSNS.Spec.Namespace {
		return admission.Allowed("all validations passed")
	}

	if oldWSNS.Status.Namespace != "" {
		message := fmt.Sprintf("the namespace of workspace %q is already %q and can not be changed", wsns.Spec.WorkspaceID, oldWSNS.Status.Namespace)
		return admission.Denied(message)
	}

	if wsns.Spec.Namespace != "" {
		return v.validateRequested(ctx, wsns)
	}

	return admission.Allowed("all validations passed")
}

// validateRequested denies a requested namespace the user may not use.
func (v *WorkspaceNamespaceValidator) validateRequested(ctx context.Context, wsns *wsnsv1.WorkspaceNamespace) admission.Response {
	err := v.Provisioner.CheckAllowed(ctx, contextOf(wsns), wsns.Spec.Namespace)
	if err == nil {
		return admission.Allowed("all validations passed")
	}

	if common.IsValidationError(err) {
		return admission.Denied(err.Error())
	}

	log.FromContext(ctx).Error(err, "failed to check requested namespace", "namespace", wsns.Spec.Namespace)
	return admission.Errored(http.StatusInternalServerError, err)
}

func validateIdentity(wsns *wsnsv1.WorkspaceNamespace) admission.Response {
	if wsns.Spec.WorkspaceID == "" || wsns.Spec.UserID == "" || wsns.Spec.UserName == "" {
		return admission.Denied("workspaceID, userID and userName are required")
	}

	return admission.Allowed("")
}
