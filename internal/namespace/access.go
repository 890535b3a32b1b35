package namespace

import (
	"context"
	"fmt"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/objectcontext"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Access is a handle on the namespace of a workspace, handed to the workspace
// runtime. It is not cached beyond the call that produced it.
type Access struct {
	name    string
	created bool
	client  client.Client
	flavor  Flavor
}

// Name returns the name of the namespace.
func (a *Access) Name() string {
	return a.name
}

// Created returns true if the namespace was provisioned by the call that
// returned this handle, false if an existing namespace was reused.
func (a *Access) Created() bool {
	return a.created
}

// Client returns the client used to manage objects in the namespace.
func (a *Access) Client() client.Client {
	return a.client
}

// Cleanup deletes every object labelled with the workspace id in the
// namespace. Each kind is attempted even if another failed; the failures are
// reported together.
func (a *Access) Cleanup(ctx context.Context, workspaceID string) error {
	logger := log.FromContext(ctx).WithValues("namespace", a.name, "workspace", workspaceID)

	if workspaceID == "" {
		return common.NewValidationError("a workspace id is required to clean up a namespace")
	}

	var errs []error
	for _, list := range a.flavor.CleanupLists() {
		objects, err := objectcontext.NewList(ctx, a.client, list,
			client.InNamespace(a.name), client.MatchingLabels{wsnsv1.WorkspaceID: workspaceID})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list %T: %v", list, err))
			continue
		}

		if err := objects.DeleteAll(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := utilerrors.Flatten(utilerrors.NewAggregate(errs)); err != nil {
		return common.NewInfrastructureError(fmt.Sprintf("failed to clean up workspace %q in namespace %q", workspaceID, a.name), err)
	}

	logger.Info("successfully cleaned up workspace")
	return nil
}
