package configurator

import (
	"context"
	"fmt"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/naming"
	"github.com/dana-team/wsns/internal/objectcontext"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// MetaConfigurator labels and annotates the namespace. The managed-by label
// and the user annotations are always set, since they identify the owner of
// the namespace when it is reconciled later.
type MetaConfigurator struct {
	Client  client.Client
	Options Options
}

func (m *MetaConfigurator) Name() string {
	return "meta"
}

func (m *MetaConfigurator) Configure(ctx context.Context, rctx naming.Context, namespace string) error {
	logger := log.FromContext(ctx)

	nsObject, err := objectcontext.New(ctx, m.Client, types.NamespacedName{Name: namespace}, &corev1.Namespace{})
	if err != nil {
		return fmt.Errorf("failed to get namespace %q: %v", namespace, err)
	}
	if !nsObject.IsPresent() {
		return fmt.Errorf("namespace %q does not exist", namespace)
	}

	labels := common.ManagedLabels()
	if m.Options.LabelNamespaces {
		labels = common.MergeMaps(m.Options.Labels, labels)
	}

	annotations := userAnnotations(rctx, m.Options.Template)
	// the template the namespace was created with is kept
	if _, ok := nsObject.Object.GetAnnotations()[wsnsv1.NamespaceTemplate]; ok {
		delete(annotations, wsnsv1.NamespaceTemplate)
	}
	if m.Options.AnnotateNamespaces {
		annotations = common.MergeMaps(naming.EvaluateAll(m.Options.Annotations, rctx), annotations)
	}

	patched, err := nsObject.MergeMetadata(labels, annotations)
	if err != nil {
		return fmt.Errorf("failed to update metadata of namespace %q: %v", namespace, err)
	}
	if patched {
		logger.Info("successfully updated namespace metadata", "namespace", namespace)
	}

	return nil
}

// userAnnotations returns the annotations identifying the user a namespace belongs to.
func userAnnotations(rctx naming.Context, template string) map[string]string {
	annotations := map[string]string{}
	if rctx.UserID != "" {
		annotations[wsnsv1.UserID] = rctx.UserID
	}
	if rctx.UserName != "" {
		annotations[wsnsv1.UserName] = rctx.UserName
	}
	if template != "" {
		annotations[wsnsv1.NamespaceTemplate] = template
	}

	return annotations
}

// ContextFromNamespace rebuilds the user part of a naming.Context from the
// annotations set by MetaConfigurator. It returns false if the namespace does
// not carry them.
func ContextFromNamespace(namespace client.Object) (naming.Context, bool) {
	annotations := namespace.GetAnnotations()
	rctx := naming.Context{
		UserID:   annotations[wsnsv1.UserID],
		UserName: annotations[wsnsv1.UserName],
	}

	return rctx, rctx.UserID != "" && rctx.UserName != ""
}
