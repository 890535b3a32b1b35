/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WorkspaceNamespaceSpec defines the desired state of WorkspaceNamespace
type WorkspaceNamespaceSpec struct {
	// WorkspaceID is the id of the workspace the namespace is requested for
	WorkspaceID string `json:"workspaceID"`

	// UserID is the id of the user owning the workspace
	UserID string `json:"userID"`

	// UserName is the name of the user owning the workspace
	UserName string `json:"userName"`

	// Namespace is the namespace requested by the user. The default namespace
	// of the user is used when empty. It can not be changed once provisioned.
	Namespace string `json:"namespace,omitempty"`

	// DeleteNamespace deletes the namespace when the WorkspaceNamespace is deleted,
	// as long as the namespace was created by wsns
	DeleteNamespace bool `json:"deleteNamespace,omitempty"`
}

// NamespaceInfo describes a namespace available to the user of a workspace
type NamespaceInfo struct {
	// Name is the name of the namespace
	Name string `json:"name"`

	// Attributes holds the default, phase, displayName and description of the namespace
	Attributes map[string]string `json:"attributes,omitempty"`
}

// WorkspaceNamespaceStatus defines the observed state of WorkspaceNamespace
type WorkspaceNamespaceStatus struct {
	// Phase acts like a state machine for the WorkspaceNamespace.
	// It is a string and can be one of the following:
	// "" (Empty) - state for a WorkspaceNamespace that is being reconciled for the first time
	// "Ready" - state for a WorkspaceNamespace whose namespace exists and is bootstrapped
	// "Failed" - state for a WorkspaceNamespace whose namespace could not be provided, see Message
	Phase Phase `json:"phase,omitempty"`

	// Namespace is the namespace the workspace runs in. Once set, it is the
	// namespace recorded for the workspace.
	Namespace string `json:"namespace,omitempty"`

	// NamespacePhase is the lifecycle phase reported by the cluster for Namespace
	NamespacePhase string `json:"namespacePhase,omitempty"`

	// Namespaces are the namespaces available to the user of the workspace
	Namespaces []NamespaceInfo `json:"namespaces,omitempty"`

	// Message explains the Failed phase
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster,shortName=wsns
// +kubebuilder:printcolumn:name="Namespace",type=string,JSONPath=`.status.namespace`
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`

// WorkspaceNamespace is the Schema for the workspacenamespaces API
type WorkspaceNamespace struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   WorkspaceNamespaceSpec   `json:"spec,omitempty"`
	Status WorkspaceNamespaceStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// WorkspaceNamespaceList contains a list of WorkspaceNamespace
type WorkspaceNamespaceList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []WorkspaceNamespace `json:"items"`
}

func init() {
	SchemeBuilder.Register(&WorkspaceNamespace{}, &WorkspaceNamespaceList{})
}
