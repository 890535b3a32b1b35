package naming

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// MaxNameLength is the longest name a namespace may carry.
const MaxNameLength = validation.DNS1123LabelMaxLength

var (
	invalidCharacters = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns          = regexp.MustCompile(`-+`)
)

// Normalize turns an arbitrary string into a valid namespace name. It never fails,
// but the result may be empty when raw holds no usable character.
func Normalize(raw string) string {
	name := strings.ToLower(raw)
	name = invalidCharacters.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	return truncate(name, MaxNameLength)
}

// IsValid returns true if name is a valid RFC 1123 DNS label.
func IsValid(name string) bool {
	return len(validation.IsDNS1123Label(name)) == 0
}

// truncate cuts name to at most length characters, dropping any dash left at the end.
func truncate(name string, length int) string {
	if len(name) <= length {
		return name
	}

	return strings.TrimRight(name[:length], "-")
}
