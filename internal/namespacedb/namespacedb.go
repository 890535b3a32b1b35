package namespacedb

import (
	"context"
	"fmt"
	"sync"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/naming"
	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// NamespaceDB is an in-memory DB that holds the namespace recorded for every
// workspace and the namespace preference of every user. It serves as the
// workspace and preference store when no external persistence is wired.
type NamespaceDB struct {
	workspaces  map[string]string
	preferences map[string]naming.Preference
	mutex       *sync.RWMutex
}

var (
	_ naming.WorkspaceStore  = &NamespaceDB{}
	_ naming.PreferenceStore = &NamespaceDB{}
)

// New returns an empty NamespaceDB.
func New() *NamespaceDB {
	return &NamespaceDB{
		workspaces:  map[string]string{},
		preferences: map[string]naming.Preference{},
		mutex:       &sync.RWMutex{},
	}
}

// Init initializes a new NamespaceDB instance, restoring the preference of
// every user owning a managed namespace from the annotations on it, and the
// namespace of every workspace from the status of its WorkspaceNamespace.
func Init(ctx context.Context, reader client.Reader, logger logr.Logger) (*NamespaceDB, error) {
	logger.Info("initializing namespacedb")

	nDB := New()
	nsList := corev1.NamespaceList{}
	if err := reader.List(ctx, &nsList, client.MatchingLabels(common.ManagedLabels())); err != nil {
		return nDB, fmt.Errorf("failed to list managed namespaces: %v", err)
	}

	for _, ns := range nsList.Items {
		userID := ns.Annotations[wsnsv1.UserID]
		template := ns.Annotations[wsnsv1.NamespaceTemplate]
		if userID == "" || template == "" || common.DeletionTimeStampExists(&ns) {
			continue
		}

		nDB.setPreference(userID, naming.Preference{Namespace: ns.Name, Template: template})
		logger.Info("successfully restored namespace preference", "namespace", ns.Name, "user", userID)
	}

	wsnsList := wsnsv1.WorkspaceNamespaceList{}
	if err := reader.List(ctx, &wsnsList); err != nil {
		return nDB, fmt.Errorf("failed to list workspace namespaces: %v", err)
	}

	for _, wsns := range wsnsList.Items {
		workspaceID := wsns.Spec.WorkspaceID
		if workspaceID == "" || wsns.Status.Namespace == "" || common.DeletionTimeStampExists(&wsns) {
			continue
		}

		nDB.workspaces[workspaceID] = wsns.Status.Namespace
		logger.Info("successfully restored workspace namespace", "namespace", wsns.Status.Namespace, "workspace", workspaceID)
	}

	return nDB, nil
}

// WorkspaceNamespace returns the namespace recorded for a workspace, or an empty string.
func (ndb *NamespaceDB) WorkspaceNamespace(_ context.Context, workspaceID string) (string, error) {
	ndb.mutex.RLock()
	defer ndb.mutex.RUnlock()

	return ndb.workspaces[workspaceID], nil
}

// RecordWorkspaceNamespace records the namespace of a workspace.
func (ndb *NamespaceDB) RecordWorkspaceNamespace(_ context.Context, workspaceID, namespace string) error {
	if workspaceID == "" {
		return fmt.Errorf("workspace id is required to record namespace %q", namespace)
	}

	ndb.mutex.Lock()
	defer ndb.mutex.Unlock()

	ndb.workspaces[workspaceID] = namespace
	return nil
}

// Preference returns the namespace preference of a user and whether one exists.
func (ndb *NamespaceDB) Preference(_ context.Context, userID string) (naming.Preference, bool, error) {
	ndb.mutex.RLock()
	defer ndb.mutex.RUnlock()

	preference, ok := ndb.preferences[userID]
	return preference, ok, nil
}

// StorePreference stores the namespace preference of a user.
func (ndb *NamespaceDB) StorePreference(_ context.Context, userID string, preference naming.Preference) error {
	if userID == "" {
		return fmt.Errorf("user id is required to store preference %q", preference.Namespace)
	}

	ndb.setPreference(userID, preference)
	return nil
}

// setPreference stores a preference under the write lock.
func (ndb *NamespaceDB) setPreference(userID string, preference naming.Preference) {
	ndb.mutex.Lock()
	defer ndb.mutex.Unlock()

	ndb.preferences[userID] = preference
}

// WorkspaceCount returns the number of workspaces with a recorded namespace.
func (ndb *NamespaceDB) WorkspaceCount() int {
	ndb.mutex.RLock()
	defer ndb.mutex.RUnlock()

	return len(ndb.workspaces)
}
