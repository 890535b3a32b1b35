package v1

const MetaGroup = "wsns.dana.io/"

const (
	True  string = "true"
	False string = "false"
)

const (
	ManagedBy      = MetaGroup + "managed-by"
	ManagedByValue = "wsns"
	WorkspaceID    = MetaGroup + "workspace-id"
)

const (
	UserID            = MetaGroup + "user-id"
	UserName          = MetaGroup + "username"
	NamespaceTemplate = MetaGroup + "namespace-template"
)

const (
	OpenShiftDisplayName = "openshift.io/display-name"
	OpenShiftDescription = "openshift.io/description"
)

// Attribute keys of namespace metadata handed to API consumers.
const (
	DefaultAttribute     = "default"
	PhaseAttribute       = "phase"
	DisplayNameAttribute = "displayName"
	DescriptionAttribute = "description"
)

// Names of the bootstrap objects created in every workspace namespace.
const (
	CredentialsSecretName      = "workspace-credentials-secret"
	PreferencesConfigMapName   = "workspace-preferences-configmap"
	UserProfileSecretName      = "user-profile"
	UserProfileIDKey           = "id"
	UserProfileNameKey         = "name"
	MetricsAPIGroup            = "metrics.k8s.io"
	MetricsAPIGroupVersion     = MetricsAPIGroup + "/v1beta1"
	DefaultNamespaceTemplate   = "<username>-che"
	DefaultNamespaceLabels     = "app.kubernetes.io/part-of=che.eclipse.org,app.kubernetes.io/component=workspaces-namespace"
	DefaultNamespaceAnnotation = "che.eclipse.org/username=<username>"
)

type Flavor string

const (
	Kubernetes Flavor = "kubernetes"
	OpenShift  Flavor = "openshift"
)

type Phase string

const (
	None   Phase = ""
	Ready  Phase = "Ready"
	Failed Phase = "Failed"
)

// WorkspaceNamespaceFinalizer holds a WorkspaceNamespace until the objects of its workspace are cleaned up.
const WorkspaceNamespaceFinalizer = MetaGroup + "workspace-cleanup"
