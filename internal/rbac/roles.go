package rbac

import (
	"strings"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"golang.org/x/exp/slices"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	ViewRoleName       = "workspace-view"
	ExecRoleName       = "exec"
	SecretsRoleName    = "workspace-secrets"
	ConfigMapsRoleName = "workspace-configmaps"
	MetricsRoleName    = "workspace-metrics"
)

const (
	roleKind        = "Role"
	clusterRoleKind = "ClusterRole"
)

// Spec describes the RBAC objects prepared for a workspace service account.
type Spec struct {
	ServiceAccountName string
	ExtraClusterRoles  []string
}

// roleTemplate is a role owned by the bootstrapper, bound to the service
// account under the binding name suffix.
type roleTemplate struct {
	name          string
	bindingSuffix string
	rules         []rbacv1.PolicyRule
}

// baseRoles returns the roles every workspace namespace gets.
func baseRoles() []roleTemplate {
	return []roleTemplate{
		{
			name:          ViewRoleName,
			bindingSuffix: "view",
			rules: []rbacv1.PolicyRule{
				{
					APIGroups: []string{""},
					Resources: []string{"pods", "services", "endpoints", "events", "persistentvolumeclaims"},
					Verbs:     []string{"get", "list", "watch"},
				},
				{
					APIGroups: []string{"apps"},
					Resources: []string{"deployments", "replicasets"},
					Verbs:     []string{"get", "list", "watch"},
				},
			},
		},
		{
			name:          ExecRoleName,
			bindingSuffix: "exec",
			rules: []rbacv1.PolicyRule{
				{
					APIGroups: []string{""},
					Resources: []string{"pods/exec"},
					Verbs:     []string{"get", "create"},
				},
			},
		},
		{
			name:          SecretsRoleName,
			bindingSuffix: "secrets",
			rules: []rbacv1.PolicyRule{
				{
					APIGroups:     []string{""},
					Resources:     []string{"secrets"},
					ResourceNames: []string{wsnsv1.CredentialsSecretName},
					Verbs:         []string{"get", "patch"},
				},
			},
		},
		{
			name:          ConfigMapsRoleName,
			bindingSuffix: "configmaps",
			rules: []rbacv1.PolicyRule{
				{
					APIGroups:     []string{""},
					Resources:     []string{"configmaps"},
					ResourceNames: []string{wsnsv1.PreferencesConfigMapName},
					Verbs:         []string{"get", "patch"},
				},
			},
		},
	}
}

// metricsRole returns the role granting read access to the metrics API.
func metricsRole() roleTemplate {
	return roleTemplate{
		name:          MetricsRoleName,
		bindingSuffix: "metrics",
		rules: []rbacv1.PolicyRule{
			{
				APIGroups: []string{wsnsv1.MetricsAPIGroup},
				Resources: []string{"pods", "nodes"},
				Verbs:     []string{"get", "list", "watch"},
			},
		},
	}
}

// ParseClusterRoles parses a comma separated list of cluster role names.
// Names are trimmed, empty entries are dropped and duplicates collapsed.
// The result is sorted.
func ParseClusterRoles(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return slices.Compact(names)
}

// BindingName returns the name of the binding of a service account to a role.
func BindingName(serviceAccountName, suffix string) string {
	return serviceAccountName + "-" + suffix
}

// composeServiceAccount returns a ServiceAccount object based on the given parameters.
func composeServiceAccount(name, namespace string) *corev1.ServiceAccount {
	return &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    common.ManagedLabels(),
		},
	}
}

// composeRole returns a Role object based on the given parameters.
func composeRole(role roleTemplate, namespace string) *rbacv1.Role {
	return &rbacv1.Role{
		ObjectMeta: metav1.ObjectMeta{
			Name:      role.name,
			Namespace: namespace,
			Labels:    common.ManagedLabels(),
		},
		Rules: role.rules,
	}
}

// composeRoleBinding returns a RoleBinding object binding the service account to the referenced role.
func composeRoleBinding(name, namespace, serviceAccountName, refKind, refName string) *rbacv1.RoleBinding {
	return &rbacv1.RoleBinding{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    common.ManagedLabels(),
		},
		Subjects: []rbacv1.Subject{
			{
				Kind:      rbacv1.ServiceAccountKind,
				Name:      serviceAccountName,
				Namespace: namespace,
			},
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     refKind,
			Name:     refName,
		},
	}
}
