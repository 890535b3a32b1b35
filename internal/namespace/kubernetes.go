package namespace

import (
	"context"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/objectcontext"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Kubernetes handles workspace namespaces as plain Namespaces.
type Kubernetes struct{}

func (k *Kubernetes) Name() wsnsv1.Flavor {
	return wsnsv1.Kubernetes
}

func (k *Kubernetes) Get(ctx context.Context, k8sClient client.Client, name string) (client.Object, error) {
	nsObject, err := objectcontext.Probe(ctx, k8sClient, types.NamespacedName{Name: name}, &corev1.Namespace{})
	if err != nil {
		return nil, err
	}
	if !nsObject.IsPresent() {
		return nil, nil
	}

	return nsObject.Object, nil
}

func (k *Kubernetes) Create(ctx context.Context, k8sClient client.Client, name string) (bool, error) {
	nsObject := objectcontext.ForObject(ctx, k8sClient, composeNamespace(name))
	if err := nsObject.CreateObject(); err != nil {
		return false, err
	}

	return nsObject.Created(), nil
}

func (k *Kubernetes) List(ctx context.Context, k8sClient client.Client, selector labels.Selector) ([]client.Object, error) {
	nsList, err := objectcontext.NewList(ctx, k8sClient, &corev1.NamespaceList{}, client.MatchingLabelsSelector{Selector: selector})
	if err != nil {
		return nil, err
	}

	var namespaces []client.Object
	for i := range nsList.Objects.(*corev1.NamespaceList).Items {
		namespaces = append(namespaces, &nsList.Objects.(*corev1.NamespaceList).Items[i])
	}

	return namespaces, nil
}

func (k *Kubernetes) Attributes(object client.Object) map[string]string {
	attributes := map[string]string{}
	if ns, ok := object.(*corev1.Namespace); ok {
		attributes[wsnsv1.PhaseAttribute] = phase(ns.Status.Phase)
	}

	return attributes
}

func (k *Kubernetes) CleanupLists() []client.ObjectList {
	return []client.ObjectList{
		&appsv1.DeploymentList{},
		&corev1.ServiceList{},
		&networkingv1.IngressList{},
		&corev1.SecretList{},
		&corev1.ConfigMapList{},
		&corev1.PersistentVolumeClaimList{},
	}
}

// composeNamespace returns a Namespace object based on the given parameters.
func composeNamespace(name string) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
	}
}
