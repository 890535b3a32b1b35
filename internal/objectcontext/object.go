package objectcontext

import (
	"fmt"

	"github.com/dana-team/wsns/internal/common"
	"github.com/go-logr/logr"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CreateObject creates the objectContext.object in the cluster. An object that
// already exists counts as success, so concurrent callers converge.
func (r *ObjectContext) CreateObject() error {
	logger := r.Log.WithName("objectContext.CreateObject")
	if err := r.Create(r.Ctx, r.Object); err != nil {
		if apierrors.IsAlreadyExists(err) {
			logger.V(1).Info(fmt.Sprintf("%s %s already exists", r.GetKindName(), r.Name()))
			r.present = true
			return nil
		}
		logger.Error(err, fmt.Sprintf("unable to create %s %s", r.GetKindName(), r.Name()))
		return err
	}
	r.present = true
	r.created = true
	logger.Info(fmt.Sprintf("%s %s created", r.GetKindName(), r.Name()))
	return nil
}

// DeleteObject deletes the objectContext.object from the cluster.
func (r *ObjectContext) DeleteObject() error {
	logger := r.Log.WithName("objectContext.DeleteObject")
	if err := r.Delete(r.Ctx, r.Object); err != nil {
		if apierrors.IsNotFound(err) {
			logger.V(1).Info(fmt.Sprintf("%s %s does not exist", r.GetKindName(), r.Name()))
			r.present = false
			return nil
		}
		logger.Error(err, fmt.Sprintf("unable to delete %s %s", r.GetKindName(), r.Name()))
		return err
	}
	r.present = false
	logger.Info(fmt.Sprintf("%s %s deleted", r.GetKindName(), r.Name()))
	return nil
}

// UpdateObject updates the objectContext.object in the cluster after applying update to it.
func (r *ObjectContext) UpdateObject(update func(object client.Object, log logr.Logger) (client.Object, logr.Logger)) error {
	logger := r.Log.WithName("objectContext.UpdateObject")
	if !r.present {
		return fmt.Errorf("%s %s does not exist in cluster", r.GetKindName(), r.Name())
	}

	r.Object, logger = update(r.Object, logger)
	if err := r.Update(r.Ctx, r.Object); err != nil {
		logger.Error(err, fmt.Sprintf("unable to update %s %s", r.GetKindName(), r.Name()))
		return err
	}

	logger.Info(fmt.Sprintf("%s %s updated", r.GetKindName(), r.Name()))
	return nil
}

// EnsureCreate creates the object if it doesn't exist. An existing object is
// never modified.
func (r *ObjectContext) EnsureCreate() error {
	if !r.IsPresent() {
		if err := r.CreateObject(); err != nil {
			return err
		}
	}

	r.Log.V(1).Info(fmt.Sprintf("%s %s ensured", r.GetKindName(), r.Name()))
	return nil
}

// EnsureDelete deletes the object if it exists.
func (r *ObjectContext) EnsureDelete() error {
	if r.IsPresent() {
		if err := r.DeleteObject(); err != nil {
			return err
		}
	}

	r.Log.V(1).Info(fmt.Sprintf("%s %s unensured", r.GetKindName(), r.Name()))
	return nil
}

// IsPresent checks if the objectContext.object exists the cluster.
func (r *ObjectContext) IsPresent() bool {
	return r.present
}

// Created returns true if this context created the object itself rather than
// finding it in the cluster.
func (r *ObjectContext) Created() bool {
	return r.created
}

// MergeMetadata adds the given labels and annotations to the object, patching
// it only if one of them is missing or holds a different value. It returns
// true if the object was patched.
func (r *ObjectContext) MergeMetadata(labels, annotations map[string]string) (bool, error) {
	logger := r.Log.WithName("objectContext.MergeMetadata")
	if !r.present {
		return false, fmt.Errorf("%s %s does not exist in cluster", r.GetKindName(), r.Name())
	}

	if isSubset(labels, r.Object.GetLabels()) && isSubset(annotations, r.Object.GetAnnotations()) {
		return false, nil
	}

	base := r.Object.DeepCopyObject().(client.Object)
	r.Object.SetLabels(common.MergeMaps(r.Object.GetLabels(), labels))
	r.Object.SetAnnotations(common.MergeMaps(r.Object.GetAnnotations(), annotations))

	if err := r.Patch(r.Ctx, r.Object, client.MergeFrom(base)); err != nil {
		logger.Error(err, fmt.Sprintf("unable to patch %s %s", r.GetKindName(), r.Name()))
		return false, err
	}

	logger.Info(fmt.Sprintf("%s %s updated", r.GetKindName(), r.Name()), "updated", "metadata")
	return true, nil
}

// isSubset returns true if every entry of want is present in have with the same value.
func isSubset(want, have map[string]string) bool {
	for key, value := range want {
		if current, ok := have[key]; !ok || current != value {
			return false
		}
	}

	return true
}

// DeleteAll deletes every object of the list, attempting each one even if
// another failed, and returns the failures aggregated into one error.
func (r *ObjectContextList) DeleteAll() error {
	logger := r.Log.WithName("objectContextList.DeleteAll")

	items, err := meta.ExtractList(r.Objects)
	if err != nil {
		return err
	}

	var errs []error
	for _, item := range items {
		object, ok := item.(client.Object)
		if !ok {
			continue
		}

		if err := r.Delete(r.Ctx, object); err != nil && !apierrors.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("failed to delete %s %q: %v", kindName(r.Client, object), object.GetName(), err))
			continue
		}
		logger.V(1).Info(fmt.Sprintf("%s %s deleted", kindName(r.Client, object), object.GetName()), "namespace", object.GetNamespace())
	}

	return utilerrors.NewAggregate(errs)
}

