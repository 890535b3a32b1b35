package naming

import (
	"context"
	"strings"
)

const (
	UserNamePlaceholder    = "<username>"
	UserIDPlaceholder      = "<userid>"
	WorkspaceIDPlaceholder = "<workspaceid>"
)

// Context identifies the workspace and user a namespace is resolved for.
// It is built once per request and passed explicitly through every call.
type Context struct {
	WorkspaceID string
	UserID      string
	UserName    string
}

// EvaluatePlaceholders substitutes every placeholder of template with the
// values of rctx. The result is not normalized.
func EvaluatePlaceholders(template string, rctx Context) string {
	return strings.NewReplacer(
		UserNamePlaceholder, rctx.UserName,
		UserIDPlaceholder, rctx.UserID,
		WorkspaceIDPlaceholder, rctx.WorkspaceID,
	).Replace(template)
}

// EvaluateAll substitutes the placeholders in every value of templates.
func EvaluateAll(templates map[string]string, rctx Context) map[string]string {
	evaluated := make(map[string]string, len(templates))
	for key, value := range templates {
		evaluated[key] = EvaluatePlaceholders(value, rctx)
	}

	return evaluated
}

// Preference is the namespace a user was last given, together with the
// template that was configured when it was stored.
type Preference struct {
	Namespace string
	Template  string
}

// WorkspaceStore persists the namespace a workspace obtained the first time it ran.
type WorkspaceStore interface {
	// WorkspaceNamespace returns the recorded namespace, or an empty string.
	WorkspaceNamespace(ctx context.Context, workspaceID string) (string, error)
	RecordWorkspaceNamespace(ctx context.Context, workspaceID, namespace string) error
}

// PreferenceStore persists the per-user namespace preference.
type PreferenceStore interface {
	// Preference returns the stored preference and whether one exists.
	Preference(ctx context.Context, userID string) (Preference, bool, error)
	StorePreference(ctx context.Context, userID string, preference Preference) error
}
