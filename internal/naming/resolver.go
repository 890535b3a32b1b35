package naming

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dana-team/wsns/internal/common"
	"k8s.io/apimachinery/pkg/util/rand"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Source tells where a resolved namespace name came from.
type Source string

const (
	SourceWorkspace  Source = "workspace"
	SourcePreference Source = "preference"
	SourceTemplate   Source = "template"
)

// Resolution is the outcome of resolving the namespace of a workspace.
type Resolution struct {
	Name   string
	Source Source
}

const suffixLength = 5

// Prefixes reserved for the cluster itself.
var protectedPrefixes = []string{"kube-", "openshift-"}

// Resolve applies the precedence rules for the namespace of a workspace: the
// name recorded on the workspace wins and is used verbatim, then the user
// preference if it was stored against the same template, then the template.
func Resolve(rctx Context, template, recorded string, preference *Preference) (Resolution, error) {
	if recorded != "" {
		return Resolution{Name: recorded, Source: SourceWorkspace}, nil
	}

	if preference != nil && preference.Namespace != "" && preference.Template == template {
		return Resolution{Name: preference.Namespace, Source: SourcePreference}, nil
	}

	name, err := EvaluateTemplate(template, rctx)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{Name: name, Source: SourceTemplate}, nil
}

// EvaluateTemplate substitutes the placeholders of template and normalizes the
// result. When a substituted user value or the result itself starts with a
// prefix reserved for the cluster, a suffix derived from the user is appended.
func EvaluateTemplate(template string, rctx Context) (string, error) {
	if template == "" {
		return "", common.NewValidationError("no default namespace is configured, a namespace must be specified")
	}

	name := Normalize(EvaluatePlaceholders(template, rctx))
	if name == "" {
		return "", common.NewValidationError(fmt.Sprintf("namespace template %q evaluated to an empty name for user %q", template, rctx.UserName))
	}

	if collidesWithProtectedPrefix(template, name, rctx) {
		name = withSuffix(name, disambiguator(rctx))
	}

	return name, nil
}

// collidesWithProtectedPrefix checks the result and every user value the template uses.
func collidesWithProtectedPrefix(template, name string, rctx Context) bool {
	if hasProtectedPrefix(name) {
		return true
	}

	values := map[string]string{
		UserNamePlaceholder: rctx.UserName,
		UserIDPlaceholder:   rctx.UserID,
	}
	for placeholder, value := range values {
		if strings.Contains(template, placeholder) && hasProtectedPrefix(Normalize(value)) {
			return true
		}
	}

	return false
}

func hasProtectedPrefix(value string) bool {
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}

	return false
}

// disambiguator returns a short suffix that is stable for a given user.
func disambiguator(rctx Context) string {
	sum := sha256.Sum256([]byte(rctx.UserID + "/" + rctx.UserName))
	return rand.SafeEncodeString(hex.EncodeToString(sum[:])[:suffixLength])
}

// withSuffix appends suffix to name, shortening name so the result stays a valid label.
func withSuffix(name, suffix string) string {
	return truncate(name, MaxNameLength-len(suffix)-1) + "-" + suffix
}

// Resolver resolves namespace names for workspaces using the configured
// template and the optional persistence of workspaces and user preferences.
type Resolver struct {
	template         string
	allowUserDefined bool
	workspaces       WorkspaceStore
	preferences      PreferenceStore
}

// NewResolver creates a Resolver. Either store may be nil, in which case the
// corresponding precedence step is skipped.
func NewResolver(template string, allowUserDefined bool, workspaces WorkspaceStore, preferences PreferenceStore) (*Resolver, error) {
	if template == "" && !allowUserDefined {
		return nil, common.NewConfigurationError("a default namespace template must be configured when user defined namespaces are not allowed")
	}

	return &Resolver{
		template:         template,
		allowUserDefined: allowUserDefined,
		workspaces:       workspaces,
		preferences:      preferences,
	}, nil
}

// Template returns the configured namespace template.
func (r *Resolver) Template() string {
	return r.template
}

// AllowUserDefined returns true if users may pick their own namespaces.
func (r *Resolver) AllowUserDefined() bool {
	return r.allowUserDefined
}

// Resolve returns the namespace the workspace of rctx should run in.
func (r *Resolver) Resolve(ctx context.Context, rctx Context) (Resolution, error) {
	logger := log.FromContext(ctx)

	recorded, err := r.recordedNamespace(ctx, rctx)
	if err != nil {
		return Resolution{}, err
	}
	if recorded != "" {
		logger.V(1).Info("resolved namespace", "namespace", recorded, "source", SourceWorkspace)
		return Resolution{Name: recorded, Source: SourceWorkspace}, nil
	}

	preference, err := r.preference(ctx, rctx)
	if err != nil {
		return Resolution{}, err
	}

	resolution, err := Resolve(rctx, r.template, recorded, preference)
	if err != nil {
		return Resolution{}, err
	}
	logger.V(1).Info("resolved namespace", "namespace", resolution.Name, "source", resolution.Source)

	return resolution, nil
}

// ResolveDefault returns the default namespace of the user of rctx, ignoring
// whatever is recorded on the workspace.
func (r *Resolver) ResolveDefault(ctx context.Context, rctx Context) (Resolution, error) {
	preference, err := r.preference(ctx, rctx)
	if err != nil {
		return Resolution{}, err
	}

	return Resolve(rctx, r.template, "", preference)
}

func (r *Resolver) recordedNamespace(ctx context.Context, rctx Context) (string, error) {
	if r.workspaces == nil || rctx.WorkspaceID == "" {
		return "", nil
	}

	recorded, err := r.workspaces.WorkspaceNamespace(ctx, rctx.WorkspaceID)
	if err != nil {
		return "", fmt.Errorf("failed to read the namespace recorded for workspace %q: %w", rctx.WorkspaceID, err)
	}

	return recorded, nil
}

func (r *Resolver) preference(ctx context.Context, rctx Context) (*Preference, error) {
	if r.preferences == nil || rctx.UserID == "" {
		return nil, nil
	}

	preference, found, err := r.preferences.Preference(ctx, rctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read the namespace preference of user %q: %w", rctx.UserID, err)
	}
	if !found {
		return nil, nil
	}

	return &preference, nil
}
