package configurator

import (
	"context"
	"fmt"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/naming"
	"github.com/dana-team/wsns/internal/objectcontext"
	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CredentialsSecretConfigurator ensures the secret holding the workspace git credentials.
type CredentialsSecretConfigurator struct {
	Client client.Client
}

func (s *CredentialsSecretConfigurator) Name() string {
	return "credentials-secret"
}

func (s *CredentialsSecretConfigurator) Configure(ctx context.Context, _ naming.Context, namespace string) error {
	secret := &corev1.Secret{
		ObjectMeta: composeMeta(wsnsv1.CredentialsSecretName, namespace),
		Type:       corev1.SecretTypeOpaque,
	}

	if err := objectcontext.ForObject(ctx, s.Client, secret).EnsureCreate(); err != nil {
		return fmt.Errorf("failed to create secret %q: %v", wsnsv1.CredentialsSecretName, err)
	}

	return nil
}

// PreferencesConfigMapConfigurator ensures the config map holding the workspace preferences.
type PreferencesConfigMapConfigurator struct {
	Client client.Client
}

func (p *PreferencesConfigMapConfigurator) Name() string {
	return "preferences-configmap"
}

func (p *PreferencesConfigMapConfigurator) Configure(ctx context.Context, _ naming.Context, namespace string) error {
	configMap := &corev1.ConfigMap{
		ObjectMeta: composeMeta(wsnsv1.PreferencesConfigMapName, namespace),
	}

	if err := objectcontext.ForObject(ctx, p.Client, configMap).EnsureCreate(); err != nil {
		return fmt.Errorf("failed to create configmap %q: %v", wsnsv1.PreferencesConfigMapName, err)
	}

	return nil
}

// UserProfileConfigurator ensures a secret describing the user, kept in sync
// with the user id and name.
type UserProfileConfigurator struct {
	Client client.Client
}

func (u *UserProfileConfigurator) Name() string {
	return "user-profile"
}

func (u *UserProfileConfigurator) Configure(ctx context.Context, rctx naming.Context, namespace string) error {
	data := map[string][]byte{
		wsnsv1.UserProfileIDKey:   []byte(rctx.UserID),
		wsnsv1.UserProfileNameKey: []byte(rctx.UserName),
	}

	secretObject, err := objectcontext.New(ctx, u.Client, types.NamespacedName{Name: wsnsv1.UserProfileSecretName, Namespace: namespace}, &corev1.Secret{})
	if err != nil {
		return fmt.Errorf("failed to get secret %q: %v", wsnsv1.UserProfileSecretName, err)
	}

	if !secretObject.IsPresent() {
		secretObject.Object = &corev1.Secret{
			ObjectMeta: composeMeta(wsnsv1.UserProfileSecretName, namespace),
			Type:       corev1.SecretTypeOpaque,
			Data:       data,
		}
		if err := secretObject.EnsureCreate(); err != nil {
			return fmt.Errorf("failed to create secret %q: %v", wsnsv1.UserProfileSecretName, err)
		}
		return nil
	}

	if profileMatches(secretObject.Object.(*corev1.Secret), data) {
		return nil
	}

	if err := secretObject.UpdateObject(func(object client.Object, log logr.Logger) (client.Object, logr.Logger) {
		object.(*corev1.Secret).Data = data
		return object, log.WithValues("updated", "data")
	}); err != nil {
		return fmt.Errorf("failed to update secret %q: %v", wsnsv1.UserProfileSecretName, err)
	}

	return nil
}

// profileMatches returns true if the secret already holds data.
func profileMatches(secret *corev1.Secret, data map[string][]byte) bool {
	for key, value := range data {
		if string(secret.Data[key]) != string(value) {
			return false
		}
	}

	return true
}

// ServiceAccountConfigurator ensures the service account used by the SCM
// integration. It does nothing when no name is configured.
type ServiceAccountConfigurator struct {
	Client             client.Client
	ServiceAccountName string
}

func (s *ServiceAccountConfigurator) Name() string {
	return "scm-service-account"
}

func (s *ServiceAccountConfigurator) Configure(ctx context.Context, _ naming.Context, namespace string) error {
	if s.ServiceAccountName == "" {
		return nil
	}

	serviceAccount := &corev1.ServiceAccount{
		ObjectMeta: composeMeta(s.ServiceAccountName, namespace),
	}

	if err := objectcontext.ForObject(ctx, s.Client, serviceAccount).EnsureCreate(); err != nil {
		return fmt.Errorf("failed to create service account %q: %v", s.ServiceAccountName, err)
	}

	return nil
}

// composeMeta returns the metadata of an object managed in a workspace namespace.
func composeMeta(name, namespace string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: namespace,
		Labels:    common.ManagedLabels(),
	}
}
