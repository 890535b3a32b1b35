package namespace

import (
	"context"
	"fmt"

	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/configurator"
	"github.com/dana-team/wsns/internal/metrics"
	"github.com/dana-team/wsns/internal/naming"
	"github.com/dana-team/wsns/internal/objectcontext"
	"github.com/dana-team/wsns/internal/rbac"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Options holds the configuration of a Provisioner.
type Options struct {
	// AllowCreation permits creating namespaces that do not exist yet.
	AllowCreation bool
	// Labels select the namespaces listed for users. They never carry placeholders.
	Labels map[string]string
	// Annotations identify the owner of a listed namespace. Their values may
	// carry placeholders, which are evaluated for the current user.
	Annotations map[string]string
	// WorkspaceServiceAccount is the service account prepared in every created
	// namespace. No RBAC is prepared when empty.
	WorkspaceServiceAccount string
	ClusterRoles            []string
}

// Meta describes a namespace available to a user.
type Meta struct {
	Name       string
	Attributes map[string]string
}

// Provisioner resolves, creates and lists the namespaces of workspaces.
// It holds no state of its own besides its collaborators.
type Provisioner struct {
	Client        client.Client
	Flavor        Flavor
	Resolver      *naming.Resolver
	Configurators []configurator.Configurator
	Bootstrapper  *rbac.Bootstrapper
	// Workspaces and Preferences record the outcome of GetOrCreate. Either may be nil.
	Workspaces  naming.WorkspaceStore
	Preferences naming.PreferenceStore
	Options     Options
}

// CheckAllowed returns a ValidationError if the user of rctx may not use the
// requested namespace.
func (p *Provisioner) CheckAllowed(ctx context.Context, rctx naming.Context, requested string) error {
	if p.Resolver.AllowUserDefined() {
		if !naming.IsValid(requested) {
			return common.NewValidationError(fmt.Sprintf("namespace %q is not a valid namespace name", requested))
		}
		return nil
	}

	resolution, err := p.Resolver.Resolve(ctx, rctx)
	if err != nil {
		return wrapResolutionError(err)
	}

	if requested != resolution.Name {
		return common.NewValidationError(fmt.Sprintf("user defined namespaces are not allowed, the only allowed namespace is %q", resolution.Name))
	}

	return nil
}

// Claim records requested as the namespace of the workspace of rctx once
// CheckAllowed accepts it. GetOrCreate resolves the claimed namespace from then on.
func (p *Provisioner) Claim(ctx context.Context, rctx naming.Context, requested string) error {
	if err := p.CheckAllowed(ctx, rctx, requested); err != nil {
		return err
	}

	if p.Workspaces == nil || rctx.WorkspaceID == "" {
		return common.NewConfigurationError("namespaces can only be claimed for workspaces when workspaces are recorded")
	}

	if err := p.Workspaces.RecordWorkspaceNamespace(ctx, rctx.WorkspaceID, requested); err != nil {
		return common.NewInfrastructureError(fmt.Sprintf("failed to record namespace %q of workspace %q", requested, rctx.WorkspaceID), err)
	}
	log.FromContext(ctx).Info("successfully claimed namespace", "namespace", requested, "workspace", rctx.WorkspaceID)

	return nil
}

// GetOrCreate returns the namespace of the workspace of rctx, creating and
// bootstrapping it when it does not exist. An existing namespace is reused
// as is.
func (p *Provisioner) GetOrCreate(ctx context.Context, rctx naming.Context) (*Access, error) {
	resolution, err := p.Resolver.Resolve(ctx, rctx)
	if err != nil {
		return nil, wrapResolutionError(err)
	}
	name := resolution.Name

	logger := log.FromContext(ctx).WithValues("namespace", name, "workspace", rctx.WorkspaceID)
	ctx = log.IntoContext(ctx, logger)

	existing, err := p.Flavor.Get(ctx, p.Client, name)
	if err != nil {
		return nil, common.NewInfrastructureError(fmt.Sprintf("failed to get namespace %q", name), err)
	}

	if existing != nil {
		if err := p.record(ctx, rctx, resolution); err != nil {
			return nil, err
		}
		logger.V(1).Info("reusing existing namespace")
		return p.access(name, false), nil
	}

	if err := p.checkCreationAllowed(ctx, rctx, resolution); err != nil {
		return nil, err
	}

	created, err := p.Flavor.Create(ctx, p.Client, name)
	if err != nil {
		return nil, common.NewInfrastructureError(fmt.Sprintf("failed to create namespace %q", name), err)
	}
	if created {
		metrics.ObserveNamespaceCreated(string(p.Flavor.Name()))
		logger.Info("successfully created namespace")
	}

	if err := configurator.Run(ctx, p.Configurators, rctx, name); err != nil {
		return nil, err
	}

	if p.Options.WorkspaceServiceAccount != "" && p.Bootstrapper != nil {
		spec := rbac.Spec{ServiceAccountName: p.Options.WorkspaceServiceAccount, ExtraClusterRoles: p.Options.ClusterRoles}
		if err := p.Bootstrapper.Prepare(ctx, spec, name); err != nil {
			return nil, err
		}
	}

	if err := p.record(ctx, rctx, resolution); err != nil {
		return nil, err
	}

	return p.access(name, created), nil
}

// checkCreationAllowed returns an InfrastructureError if a missing namespace
// may not be created. A workspace whose recorded namespace is gone is only
// recreated there if that is still the default namespace of its user.
func (p *Provisioner) checkCreationAllowed(ctx context.Context, rctx naming.Context, resolution naming.Resolution) error {
	if !p.Options.AllowCreation {
		return common.NewInfrastructureError(fmt.Sprintf("namespace %q not found and its creation is not allowed", resolution.Name), nil)
	}

	if resolution.Source != naming.SourceWorkspace {
		return nil
	}

	defaultResolution, err := p.Resolver.ResolveDefault(ctx, rctx)
	if err != nil && !common.IsValidationError(err) {
		return wrapResolutionError(err)
	}
	if err != nil || defaultResolution.Name != resolution.Name {
		return common.NewInfrastructureError(fmt.Sprintf("namespace %q not found and recreation into a newer default is not permitted", resolution.Name), nil)
	}

	return nil
}

// record stores the namespace on the workspace and, when it was evaluated
// from the template, as the preference of the user.
func (p *Provisioner) record(ctx context.Context, rctx naming.Context, resolution naming.Resolution) error {
	if p.Workspaces != nil && rctx.WorkspaceID != "" && resolution.Source != naming.SourceWorkspace {
		if err := p.Workspaces.RecordWorkspaceNamespace(ctx, rctx.WorkspaceID, resolution.Name); err != nil {
			return common.NewInfrastructureError(fmt.Sprintf("failed to record namespace %q of workspace %q", resolution.Name, rctx.WorkspaceID), err)
		}
	}

	if p.Preferences != nil && rctx.UserID != "" && resolution.Source == naming.SourceTemplate {
		preference := naming.Preference{Namespace: resolution.Name, Template: p.Resolver.Template()}
		if err := p.Preferences.StorePreference(ctx, rctx.UserID, preference); err != nil {
			return common.NewInfrastructureError(fmt.Sprintf("failed to store namespace preference of user %q", rctx.UserID), err)
		}
	}

	return nil
}

// DeleteIfManaged deletes a namespace, but only if it was created by this module.
// It returns true if the namespace was deleted.
func (p *Provisioner) DeleteIfManaged(ctx context.Context, name string) (bool, error) {
	logger := log.FromContext(ctx).WithValues("namespace", name)

	nsObject, err := objectcontext.New(ctx, p.Client, types.NamespacedName{Name: name}, &corev1.Namespace{})
	if err != nil {
		return false, common.NewInfrastructureError(fmt.Sprintf("failed to get namespace %q", name), err)
	}
	if !nsObject.IsPresent() {
		return false, nil
	}

	if !common.IsManaged(nsObject.Object) {
		logger.Info("namespace is not managed, leaving it in place")
		return false, nil
	}

	if err := nsObject.EnsureDelete(); err != nil {
		return false, common.NewInfrastructureError(fmt.Sprintf("failed to delete namespace %q", name), err)
	}
	logger.Info("successfully deleted namespace")

	return true, nil
}

// Open returns a handle on an existing namespace.
func (p *Provisioner) Open(name string) *Access {
	return p.access(name, false)
}

func (p *Provisioner) access(name string, created bool) *Access {
	return &Access{name: name, created: created, client: p.Client, flavor: p.Flavor}
}

// wrapResolutionError keeps the typed errors of the resolver and wraps anything else.
func wrapResolutionError(err error) error {
	if common.IsValidationError(err) || common.IsConfigurationError(err) || common.IsInfrastructureError(err) {
		return err
	}

	return common.NewInfrastructureError("failed to resolve namespace", err)
}
