package namespace

import (
	"context"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/objectcontext"
	projectv1 "github.com/openshift/api/project/v1"
	routev1 "github.com/openshift/api/route/v1"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// OpenShift handles workspace namespaces as Projects, created through
// ProjectRequests so that regular users are allowed to create them.
type OpenShift struct{}

func (o *OpenShift) Name() wsnsv1.Flavor {
	return wsnsv1.OpenShift
}

func (o *OpenShift) Get(ctx context.Context, k8sClient client.Client, name string) (client.Object, error) {
	projectObject, err := objectcontext.Probe(ctx, k8sClient, types.NamespacedName{Name: name}, &projectv1.Project{})
	if err != nil {
		return nil, err
	}
	if !projectObject.IsPresent() {
		return nil, nil
	}

	return projectObject.Object, nil
}

func (o *OpenShift) Create(ctx context.Context, k8sClient client.Client, name string) (bool, error) {
	requestObject := objectcontext.ForObject(ctx, k8sClient, composeProjectRequest(name))
	if err := requestObject.CreateObject(); err != nil {
		return false, err
	}

	return requestObject.Created(), nil
}

func (o *OpenShift) List(ctx context.Context, k8sClient client.Client, selector labels.Selector) ([]client.Object, error) {
	projectList, err := objectcontext.NewList(ctx, k8sClient, &projectv1.ProjectList{}, client.MatchingLabelsSelector{Selector: selector})
	if err != nil {
		return nil, err
	}

	var projects []client.Object
	for i := range projectList.Objects.(*projectv1.ProjectList).Items {
		projects = append(projects, &projectList.Objects.(*projectv1.ProjectList).Items[i])
	}

	return projects, nil
}

func (o *OpenShift) Attributes(object client.Object) map[string]string {
	attributes := map[string]string{}
	project, ok := object.(*projectv1.Project)
	if !ok {
		return attributes
	}

	attributes[wsnsv1.PhaseAttribute] = phase(project.Status.Phase)
	if displayName := project.Annotations[wsnsv1.OpenShiftDisplayName]; displayName != "" {
		attributes[wsnsv1.DisplayNameAttribute] = displayName
	}
	if description := project.Annotations[wsnsv1.OpenShiftDescription]; description != "" {
		attributes[wsnsv1.DescriptionAttribute] = description
	}

	return attributes
}

func (o *OpenShift) CleanupLists() []client.ObjectList {
	return []client.ObjectList{
		&appsv1.DeploymentList{},
		&corev1.ServiceList{},
		&routev1.RouteList{},
		&corev1.SecretList{},
		&corev1.ConfigMapList{},
		&corev1.PersistentVolumeClaimList{},
	}
}

// composeProjectRequest returns a ProjectRequest object based on the given parameters.
func composeProjectRequest(name string) *projectv1.ProjectRequest {
	return &projectv1.ProjectRequest{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
	}
}
