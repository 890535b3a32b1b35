package testutils

import (
	"context"
	"errors"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	. "github.com/onsi/gomega"
	projectv1 "github.com/openshift/api/project/v1"
	routev1 "github.com/openshift/api/route/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	fakediscovery "k8s.io/client-go/discovery/fake"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	clienttesting "k8s.io/client-go/testing"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
)

// clusterScopedKinds are the kinds the fake cluster stores without a namespace.
var clusterScopedKinds = map[string]bool{
	"Namespace":          true,
	"ClusterRole":        true,
	"ClusterRoleBinding": true,
	"Project":            true,
	"ProjectRequest":     true,
	"WorkspaceNamespace": true,
}

// NewScheme returns a scheme holding the Kubernetes, OpenShift and wsns types used by the tests.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	Expect(clientgoscheme.AddToScheme(scheme)).To(Succeed())
	Expect(projectv1.Install(scheme)).To(Succeed())
	Expect(routev1.Install(scheme)).To(Succeed())
	Expect(wsnsv1.AddToScheme(scheme)).To(Succeed())

	return scheme
}

// newRESTMapper maps every kind of the scheme with the scope it has on a real cluster.
func newRESTMapper(scheme *runtime.Scheme) meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper(nil)
	for gvk := range scheme.AllKnownTypes() {
		scope := meta.RESTScopeNamespace
		if clusterScopedKinds[gvk.Kind] {
			scope = meta.RESTScopeRoot
		}
		mapper.Add(gvk, scope)
	}

	return mapper
}

// NewClient returns a fake client holding the given objects.
func NewClient(objects ...client.Object) client.WithWatch {
	return NewClientWithInterceptors(interceptor.Funcs{}, objects...)
}

// NewClientWithInterceptors returns a fake client holding the given objects whose calls go through funcs first.
func NewClientWithInterceptors(funcs interceptor.Funcs, objects ...client.Object) client.WithWatch {
	scheme := NewScheme()

	return fake.NewClientBuilder().
		WithScheme(scheme).
		WithRESTMapper(newRESTMapper(scheme)).
		WithObjects(objects...).
		WithStatusSubresource(&wsnsv1.WorkspaceNamespace{}).
		WithInterceptorFuncs(funcs).
		Build()
}

// NewDiscovery returns a fake discovery client serving the given group versions.
func NewDiscovery(groupVersions ...string) *fakediscovery.FakeDiscovery {
	var resources []*metav1.APIResourceList
	for _, groupVersion := range groupVersions {
		resources = append(resources, &metav1.APIResourceList{
			GroupVersion: groupVersion,
			APIResources: []metav1.APIResource{{Name: "pods", Namespaced: true, Kind: "PodMetrics"}},
		})
	}

	return &fakediscovery.FakeDiscovery{Fake: &clienttesting.Fake{Resources: resources}}
}

// Forbidden returns the error a cluster answers with when the caller lacks permissions.
func Forbidden(resource, name string) error {
	return apierrors.NewForbidden(schema.GroupResource{Resource: resource}, name, errors.New("access denied"))
}

// kindOf returns the kind of object according to the client scheme.
func kindOf(c client.WithWatch, object runtime.Object) string {
	gvk, err := apiutil.GVKForObject(object, c.Scheme())
	if err != nil {
		return ""
	}

	return gvk.Kind
}

// ForbidGet makes every get of the given kind fail as forbidden.
func ForbidGet(kind string) interceptor.Funcs {
	return interceptor.Funcs{
		Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
			if kindOf(c, obj) == kind {
				return Forbidden(kind, key.Name)
			}
			return c.Get(ctx, key, obj, opts...)
		},
	}
}

// ForbidList makes every list of the given list kind fail as forbidden.
func ForbidList(listKind string) interceptor.Funcs {
	return FailList(listKind, Forbidden(listKind, ""))
}

// FailList makes every list of the given list kind fail with err.
func FailList(listKind string, err error) interceptor.Funcs {
	return interceptor.Funcs{
		List: func(ctx context.Context, c client.WithWatch, list client.ObjectList, opts ...client.ListOption) error {
			if kindOf(c, list) == listKind {
				return err
			}
			return c.List(ctx, list, opts...)
		},
	}
}

// FailCreate makes every create of the given kind fail with err.
func FailCreate(kind string, err error) interceptor.Funcs {
	return interceptor.Funcs{
		Create: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.CreateOption) error {
			if kindOf(c, obj) == kind {
				return err
			}
			return c.Create(ctx, obj, opts...)
		},
	}
}

// FailDelete makes every delete of the given kinds fail with err.
func FailDelete(err error, kinds ...string) interceptor.Funcs {
	return interceptor.Funcs{
		Delete: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.DeleteOption) error {
			for _, kind := range kinds {
				if kindOf(c, obj) == kind {
					return err
				}
			}
			return c.Delete(ctx, obj, opts...)
		},
	}
}

// ForbidGetMissing makes gets of missing objects of the given kind fail as
// forbidden, the way clusters answer users that may not read them yet.
func ForbidGetMissing(kind string) interceptor.Funcs {
	return interceptor.Funcs{
		Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
			err := c.Get(ctx, key, obj, opts...)
			if apierrors.IsNotFound(err) && kindOf(c, obj) == kind {
				return Forbidden(kind, key.Name)
			}
			return err
		},
	}
}

// ServeProjectRequests makes the fake cluster answer a ProjectRequest the way
// OpenShift does, by creating the Project and its Namespace.
func ServeProjectRequests() interceptor.Funcs {
	return interceptor.Funcs{
		Create: func(ctx context.Context, c client.WithWatch, obj client.Object, opts ...client.CreateOption) error {
			request, ok := obj.(*projectv1.ProjectRequest)
			if !ok {
				return c.Create(ctx, obj, opts...)
			}

			annotations := map[string]string{}
			if request.DisplayName != "" {
				annotations["openshift.io/display-name"] = request.DisplayName
			}
			if request.Description != "" {
				annotations["openshift.io/description"] = request.Description
			}

			if err := c.Create(ctx, ComposeNamespace(request.Name, nil, annotations)); err != nil {
				return err
			}
			return c.Create(ctx, ComposeProject(request.Name, nil, annotations))
		},
	}
}
