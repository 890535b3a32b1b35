package common

import (
	"fmt"
	"strings"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// DeletionTimeStampExists returns true if an object is being deleted, and false otherwise.
func DeletionTimeStampExists(object client.Object) bool {
	return !object.GetDeletionTimestamp().IsZero()
}

// IsManaged returns true if the object carries the managed-by label set on
// everything this module creates.
func IsManaged(object client.Object) bool {
	return object.GetLabels()[wsnsv1.ManagedBy] == wsnsv1.ManagedByValue
}

// ManagedLabels returns the labels marking an object as created by this module.
func ManagedLabels() map[string]string {
	return map[string]string{wsnsv1.ManagedBy: wsnsv1.ManagedByValue}
}

// MergeMaps returns a new map holding the entries of all the given maps,
// later maps winning on duplicate keys.
func MergeMaps(maps ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, m := range maps {
		for key, value := range m {
			merged[key] = value
		}
	}

	return merged
}

// ParseKeyValues parses a comma separated list of key=value pairs. Values are
// kept verbatim so that they may carry placeholders such as <username>.
func ParseKeyValues(raw string) (map[string]string, error) {
	result := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("failed to parse %q: expected the key=value format", pair)
		}
		result[key] = strings.TrimSpace(value)
	}

	return result, nil
}
