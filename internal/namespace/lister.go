package namespace

import (
	"context"
	"fmt"
	"strings"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/metrics"
	"github.com/dana-team/wsns/internal/naming"
	"golang.org/x/exp/slices"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// List returns the namespaces of the user of rctx, sorted by name. The
// namespaces are selected by the configured labels, then filtered on the
// owner annotations evaluated for the user. The default namespace of the
// user is always part of the result, marked with the default attribute.
func (p *Provisioner) List(ctx context.Context, rctx naming.Context) ([]Meta, error) {
	logger := log.FromContext(ctx)

	candidates, err := p.Flavor.List(ctx, p.Client, p.selector())
	if err != nil {
		if !apierrors.IsForbidden(err) {
			return nil, common.NewInfrastructureError("failed to list namespaces", err)
		}
		metrics.ObserveNamespaceListFallback()
		logger.Info("not allowed to list namespaces, falling back to the default namespace")
		candidates = nil
	}

	owner := naming.EvaluateAll(p.Options.Annotations, rctx)
	var namespaces []Meta
	for _, candidate := range candidates {
		if !hasAnnotations(candidate, owner) {
			continue
		}
		namespaces = append(namespaces, Meta{Name: candidate.GetName(), Attributes: p.Flavor.Attributes(candidate)})
	}

	defaultMeta, err := p.FetchDefault(ctx, rctx)
	if err != nil {
		if !common.IsValidationError(err) {
			return nil, err
		}
		logger.V(1).Info("no default namespace for user", "reason", err.Error())
		return sortByName(namespaces), nil
	}

	for i := range namespaces {
		if namespaces[i].Name == defaultMeta.Name {
			namespaces[i].Attributes[wsnsv1.DefaultAttribute] = wsnsv1.True
			return sortByName(namespaces), nil
		}
	}

	return sortByName(append(namespaces, defaultMeta)), nil
}

// FetchDefault returns the default namespace of the user of rctx. Its phase
// attribute is only set if the namespace exists.
func (p *Provisioner) FetchDefault(ctx context.Context, rctx naming.Context) (Meta, error) {
	defaultResolution, err := p.Resolver.ResolveDefault(ctx, rctx)
	if err != nil {
		return Meta{}, wrapResolutionError(err)
	}

	defaultMeta, err := p.Describe(ctx, defaultResolution.Name)
	if err != nil {
		return Meta{}, err
	}
	defaultMeta.Attributes[wsnsv1.DefaultAttribute] = wsnsv1.True

	return defaultMeta, nil
}

// Describe returns the metadata of a namespace, whether it exists or not.
// Only an existing namespace has a phase attribute.
func (p *Provisioner) Describe(ctx context.Context, name string) (Meta, error) {
	object, err := p.Flavor.Get(ctx, p.Client, name)
	if err != nil {
		return Meta{}, common.NewInfrastructureError(fmt.Sprintf("failed to get namespace %q", name), err)
	}

	attributes := map[string]string{}
	if object != nil {
		attributes = p.Flavor.Attributes(object)
	}

	return Meta{Name: name, Attributes: attributes}, nil
}

// selector returns the label selector of the listed namespaces. The managed-by
// label is used when no labels are configured.
func (p *Provisioner) selector() labels.Selector {
	if len(p.Options.Labels) == 0 {
		return labels.SelectorFromSet(common.ManagedLabels())
	}

	return labels.SelectorFromSet(p.Options.Labels)
}

// hasAnnotations returns true if the object carries every one of the given annotations.
func hasAnnotations(object client.Object, annotations map[string]string) bool {
	for key, value := range annotations {
		if object.GetAnnotations()[key] != value {
			return false
		}
	}

	return true
}

func sortByName(namespaces []Meta) []Meta {
	slices.SortFunc(namespaces, func(a, b Meta) int {
		return strings.Compare(a.Name, b.Name)
	})

	return namespaces
}
