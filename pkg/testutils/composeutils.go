package testutils

import (
	wsnsv1 "github.com/dana-team/wsns/api/v1"
	projectv1 "github.com/openshift/api/project/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ComposeNamespace returns an active Namespace object based on the given parameters.
func ComposeNamespace(name string, labels, annotations map[string]string) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Labels:      labels,
			Annotations: annotations,
		},
		Status: corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
	}
}

// ComposeProject returns an active Project object based on the given parameters.
func ComposeProject(name string, labels, annotations map[string]string) *projectv1.Project {
	return &projectv1.Project{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Labels:      labels,
			Annotations: annotations,
		},
		Status: projectv1.ProjectStatus{Phase: corev1.NamespaceActive},
	}
}

// ComposeClusterRole returns an empty ClusterRole object.
func ComposeClusterRole(name string) *rbacv1.ClusterRole {
	return &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
}

// ComposeRole returns a Role object with a single rule.
func ComposeRole(name, namespace string, rule rbacv1.PolicyRule) *rbacv1.Role {
	return &rbacv1.Role{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Rules:      []rbacv1.PolicyRule{rule},
	}
}

// ComposeWorkspaceNamespace returns a WorkspaceNamespace object requesting a namespace for the given workspace.
func ComposeWorkspaceNamespace(name, workspaceID, userID, userName string) *wsnsv1.WorkspaceNamespace {
	return &wsnsv1.WorkspaceNamespace{
		TypeMeta: metav1.TypeMeta{
			APIVersion: wsnsv1.GroupVersion.String(),
			Kind:       "WorkspaceNamespace",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
		Spec: wsnsv1.WorkspaceNamespaceSpec{
			WorkspaceID: workspaceID,
			UserID:      userID,
			UserName:    userName,
		},
	}
}
