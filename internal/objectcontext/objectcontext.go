package objectcontext

import (
	"context"
	"reflect"

	"github.com/go-logr/logr"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

type ObjectContext struct {
	client.Client
	Ctx     context.Context
	Log     logr.Logger
	Object  client.Object
	present bool
	created bool
}

type ObjectContextList struct {
	client.Client
	Ctx     context.Context
	Log     logr.Logger
	Objects client.ObjectList
}

// New creates an objectContext object. A missing object is not an error, the
// returned context is simply not present.
func New(ctx context.Context, Client client.Client, req types.NamespacedName, object client.Object) (*ObjectContext, error) {
	logger := log.FromContext(ctx).WithName("NewObjectContext")

	objectContext := ObjectContext{Client: Client, Object: object, Log: logger, Ctx: ctx, present: false}

	if err := Client.Get(ctx, req, object); err != nil {
		if apierrors.IsNotFound(err) {
			return &objectContext, nil
		}
		logger.Error(err, "unable to identify object")
		return nil, err
	}
	objectContext.present = true

	return &objectContext, nil
}

// Probe is like New, but also treats a forbidden read as a missing object.
// Some clusters deny reading a namespace that does not exist yet.
func Probe(ctx context.Context, Client client.Client, req types.NamespacedName, object client.Object) (*ObjectContext, error) {
	logger := log.FromContext(ctx).WithName("ProbeObjectContext")

	objectContext := ObjectContext{Client: Client, Object: object, Log: logger, Ctx: ctx, present: false}

	if err := Client.Get(ctx, req, object); err != nil {
		if apierrors.IsNotFound(err) {
			return &objectContext, nil
		}
		if apierrors.IsForbidden(err) {
			logger.V(1).Info("not allowed to read object, assuming it does not exist", "name", req.Name)
			return &objectContext, nil
		}
		logger.Error(err, "unable to identify object")
		return nil, err
	}
	objectContext.present = true

	return &objectContext, nil
}

// ForObject wraps an object that has not been read from the cluster yet.
func ForObject(ctx context.Context, Client client.Client, object client.Object) *ObjectContext {
	logger := log.FromContext(ctx).WithName("ObjectContext")

	return &ObjectContext{Client: Client, Object: object, Log: logger, Ctx: ctx, present: false}
}

// NewList creates a new objectContextList object.
func NewList(ctx context.Context, Client client.Client, objects client.ObjectList, req ...client.ListOption) (*ObjectContextList, error) {
	logger := log.FromContext(ctx).WithName("NewObjectContextList")

	objectContextList := ObjectContextList{Client: Client, Log: logger, Ctx: ctx, Objects: objects}

	if err := Client.List(ctx, objects, req...); err != nil {
		logger.Error(err, "unable to retrieve list")
		return nil, err
	}

	return &objectContextList, nil
}

// Name returns the object name.
func (r *ObjectContext) Name() string {
	return r.Object.GetName()
}

// GetKindName returns the object kind name.
func (r *ObjectContext) GetKindName() string {
	return kindName(r.Client, r.Object)
}

// kindName resolves the kind through the scheme, since typed objects read
// through a client usually come back with an empty TypeMeta.
func kindName(c client.Client, object client.Object) string {
	if kind := object.GetObjectKind().GroupVersionKind().Kind; kind != "" {
		return kind
	}

	if gvk, err := apiutil.GVKForObject(object, c.Scheme()); err == nil {
		return gvk.Kind
	}

	return reflect.Indirect(reflect.ValueOf(object)).Type().Name()
}
