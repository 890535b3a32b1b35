package setup

import (
	"github.com/dana-team/wsns/internal/namespace"
	. "github.com/dana-team/wsns/internal/workspacenamespace"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

// Webhooks registers the different webhooks.
func Webhooks(mgr manager.Manager, provisioner *namespace.Provisioner) {
	hookServer := mgr.GetWebhookServer()

	decoder := admission.NewDecoder(mgr.GetScheme())

	hookServer.Register("/validate-v1-workspacenamespace", &webhook.Admission{Handler: &WorkspaceNamespaceValidator{
		Client:      mgr.GetClient(),
		Decoder:     decoder,
		Provisioner: provisioner,
	}})
}
