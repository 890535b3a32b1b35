package config

import (
	"fmt"
	"strings"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/rbac"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/labels"
)

// EnvPrefix prefixes the environment variables overriding flags, e.g.
// WSNS_NAMESPACE_TEMPLATE overrides --namespace-template.
const EnvPrefix = "WSNS"

const (
	MetricsBindAddress         = "metrics-bind-address"
	HealthProbeBindAddress     = "health-probe-bind-address"
	LeaderElect                = "leader-elect"
	NoWebhooks                 = "no-webhooks"
	FlavorFlag                 = "flavor"
	NamespaceTemplate          = "namespace-template"
	AllowUserDefinedNamespaces = "allow-user-defined-namespaces"
	AllowNamespaceCreation     = "allow-namespace-creation"
	NamespaceLabels            = "namespace-labels"
	NamespaceAnnotations       = "namespace-annotations"
	LabelNamespaces            = "label-namespaces"
	AnnotateNamespaces         = "annotate-namespaces"
	WorkspaceServiceAccount    = "workspace-service-account"
	ClusterRoles               = "cluster-roles"
	SCMServiceAccount          = "scm-service-account"
)

// Config is the configuration of the manager.
type Config struct {
	MetricsAddr          string
	ProbeAddr            string
	EnableLeaderElection bool
	NoWebhooks           bool
	Flavor               wsnsv1.Flavor

	NamespaceTemplate          string
	AllowUserDefinedNamespaces bool
	AllowNamespaceCreation     bool
	NamespaceLabels            map[string]string
	NamespaceAnnotations       map[string]string
	LabelNamespaces            bool
	AnnotateNamespaces         bool

	WorkspaceServiceAccount string
	ClusterRoles            []string
	SCMServiceAccount       string
}

// BindFlags defines the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(MetricsBindAddress, ":8080", "The address the metric endpoint binds to.")
	fs.String(HealthProbeBindAddress, ":8081", "The address the probe endpoint binds to.")
	fs.Bool(LeaderElect, false, "Enable leader election for controller manager. "+
		"Enabling this will ensure there is only one active controller manager.")
	fs.Bool(NoWebhooks, false, "Disable the admission webhooks.")
	fs.String(FlavorFlag, string(wsnsv1.Kubernetes), "The cluster flavor, either kubernetes or openshift.")

	fs.String(NamespaceTemplate, wsnsv1.DefaultNamespaceTemplate, "The template of workspace namespace names. "+
		"Supports the <username> and <userid> placeholders.")
	fs.Bool(AllowUserDefinedNamespaces, false, "Allow users to pick namespaces other than their default one.")
	fs.Bool(AllowNamespaceCreation, true, "Allow creating workspace namespaces that do not exist.")
	fs.String(NamespaceLabels, wsnsv1.DefaultNamespaceLabels, "Comma separated key=value labels set on, and used to select, workspace namespaces.")
	fs.String(NamespaceAnnotations, wsnsv1.DefaultNamespaceAnnotation, "Comma separated key=value annotations identifying the owner of workspace namespaces. "+
		"Values support placeholders.")
	fs.Bool(LabelNamespaces, true, "Set the namespace labels on created namespaces.")
	fs.Bool(AnnotateNamespaces, true, "Set the namespace annotations on created namespaces.")

	fs.String(WorkspaceServiceAccount, "", "The service account prepared in every workspace namespace. No RBAC is prepared when empty.")
	fs.String(ClusterRoles, "", "Comma separated cluster roles bound to the workspace service account.")
	fs.String(SCMServiceAccount, "", "The service account created for the SCM integration. None is created when empty.")
}

// Load reads the configuration from fs, letting environment variables
// override flags that were not set on the command line.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %v", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	namespaceLabels, err := common.ParseKeyValues(v.GetString(NamespaceLabels))
	if err != nil {
		return nil, common.NewConfigurationError(fmt.Sprintf("invalid %s: %v", NamespaceLabels, err))
	}

	namespaceAnnotations, err := common.ParseKeyValues(v.GetString(NamespaceAnnotations))
	if err != nil {
		return nil, common.NewConfigurationError(fmt.Sprintf("invalid %s: %v", NamespaceAnnotations, err))
	}

	cfg := &Config{
		MetricsAddr:                v.GetString(MetricsBindAddress),
		ProbeAddr:                  v.GetString(HealthProbeBindAddress),
		EnableLeaderElection:       v.GetBool(LeaderElect),
		NoWebhooks:                 v.GetBool(NoWebhooks),
		Flavor:                     wsnsv1.Flavor(v.GetString(FlavorFlag)),
		NamespaceTemplate:          v.GetString(NamespaceTemplate),
		AllowUserDefinedNamespaces: v.GetBool(AllowUserDefinedNamespaces),
		AllowNamespaceCreation:     v.GetBool(AllowNamespaceCreation),
		NamespaceLabels:            namespaceLabels,
		NamespaceAnnotations:       namespaceAnnotations,
		LabelNamespaces:            v.GetBool(LabelNamespaces),
		AnnotateNamespaces:         v.GetBool(AnnotateNamespaces),
		WorkspaceServiceAccount:    v.GetString(WorkspaceServiceAccount),
		ClusterRoles:               rbac.ParseClusterRoles(v.GetString(ClusterRoles)),
		SCMServiceAccount:          v.GetString(SCMServiceAccount),
	}

	return cfg, cfg.Validate()
}

// Validate returns a ConfigurationError if the configuration cannot work.
func (c *Config) Validate() error {
	if c.Flavor != wsnsv1.Kubernetes && c.Flavor != wsnsv1.OpenShift {
		return common.NewConfigurationError(fmt.Sprintf("unknown %s %q, expected %q or %q", FlavorFlag, c.Flavor, wsnsv1.Kubernetes, wsnsv1.OpenShift))
	}

	if c.NamespaceTemplate == "" && !c.AllowUserDefinedNamespaces {
		return common.NewConfigurationError(fmt.Sprintf("%s must be set when user defined namespaces are not allowed", NamespaceTemplate))
	}

	for key, value := range c.NamespaceLabels {
		if strings.ContainsAny(key+value, "<>") {
			return common.NewConfigurationError(fmt.Sprintf("%s may not carry placeholders, found %s=%s", NamespaceLabels, key, value))
		}
	}

	if _, err := labels.ValidatedSelectorFromSet(c.NamespaceLabels); err != nil {
		return common.NewConfigurationError(fmt.Sprintf("invalid %s: %v", NamespaceLabels, err))
	}

	return nil
}
