package workspacenamespace

import (
	"context"
	"encoding/json"
	"net/http"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	. "github.com/dana-team/wsns/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

func newValidator(allowUserDefined bool) *WorkspaceNamespaceValidator {
	c := NewClient()
	provisioner, _ := newProvisioner(c, allowUserDefined)
	return &WorkspaceNamespaceValidator{Client: c, Decoder: admission.NewDecoder(c.Scheme()), Provisioner: provisioner}
}

func raw(wsns *wsnsv1.WorkspaceNamespace) runtime.RawExtension {
	data, err := json.Marshal(wsns)
	Expect(err).NotTo(HaveOccurred())
	return runtime.RawExtension{Raw: data}
}

func createRequest(wsns *wsnsv1.WorkspaceNamespace) admission.Request {
	return admission.Request{AdmissionRequest: admissionv1.AdmissionRequest{
		Operation: admissionv1.Create,
		Name:      wsns.Name,
		Object:    raw(wsns),
	}}
}

func updateRequest(wsns, oldWSNS *wsnsv1.WorkspaceNamespace) admission.Request {
	return admission.Request{AdmissionRequest: admissionv1.AdmissionRequest{
		Operation: admissionv1.Update,
		Name:      wsns.Name,
		Object:    raw(wsns),
		OldObject: raw(oldWSNS),
	}}
}

var _ = Describe("WorkspaceNamespaceValidator", func() {
	ctx := context.Background()

	Context("On create", func() {
		It("Should allow requesting the default namespace", func() {
			response := newValidator(false).Handle(ctx, createRequest(composeWSNS()))
			Expect(response.Allowed).To(BeTrue())

			wsns := composeWSNS()
			wsns.Spec.Namespace = defaultNamespace
			response = newValidator(false).Handle(ctx, createRequest(wsns))
			Expect(response.Allowed).To(BeTrue())
		})

		It("Should deny another namespace when user defined namespaces are not allowed", func() {
			wsns := composeWSNS()
			wsns.Spec.Namespace = "team-namespace"

			response := newValidator(false).Handle(ctx, createRequest(wsns))
			Expect(response.Allowed).To(BeFalse())
			Expect(response.Result.Code).To(Equal(int32(http.StatusForbidden)))
			Expect(response.Result.Message).To(ContainSubstring(defaultNamespace))
		})

		It("Should only allow valid namespace names when user defined namespaces are allowed", func() {
			wsns := composeWSNS()
			wsns.Spec.Namespace = "team-namespace"
			Expect(newValidator(true).Handle(ctx, createRequest(wsns)).Allowed).To(BeTrue())

			wsns.Spec.Namespace = "Team_Namespace"
			Expect(newValidator(true).Handle(ctx, createRequest(wsns)).Allowed).To(BeFalse())
		})

		It("Should deny objects that do not identify their workspace and user", func() {
			wsns := ComposeWorkspaceNamespace(wsnsName, "workspace123", "user123", "")

			response := newValidator(false).Handle(ctx, createRequest(wsns))
			Expect(response.Allowed).To(BeFalse())
			Expect(response.Result.Message).To(ContainSubstring("userName"))
		})

		It("Should reject objects it can not decode", func() {
			request := admission.Request{AdmissionRequest: admissionv1.AdmissionRequest{
				Operation: admissionv1.Create,
				Object:    runtime.RawExtension{Raw: []byte("{")},
			}}

			response := newValidator(false).Handle(ctx, request)
			Expect(response.Allowed).To(BeFalse())
			Expect(response.Result.Code).To(Equal(int32(http.StatusBadRequest)))
		})
	})

	Context("On update", func() {
		It("Should deny changing the workspace or the user", func() {
			oldWSNS := composeWSNS()
			wsns := composeWSNS()
			wsns.Spec.UserName = "janedoe"

			response := newValidator(false).Handle(ctx, updateRequest(wsns, oldWSNS))
			Expect(response.Allowed).To(BeFalse())
			Expect(response.Result.Message).To(ContainSubstring("immutable"))
		})

		It("Should deny changing the namespace once it was provided", func() {
			oldWSNS := composeWSNS()
			oldWSNS.Status.Namespace = "team-namespace"
			wsns := oldWSNS.DeepCopy()
			wsns.Spec.Namespace = "other-namespace"

			response := newValidator(true).Handle(ctx, updateRequest(wsns, oldWSNS))
			Expect(response.Allowed).To(BeFalse())
			Expect(response.Result.Message).To(ContainSubstring("team-namespace"))
		})

		It("Should check a namespace requested before one was provided", func() {
			oldWSNS := composeWSNS()
			wsns := composeWSNS()
			wsns.Spec.Namespace = "team-namespace"

			Expect(newValidator(true).Handle(ctx, updateRequest(wsns, oldWSNS)).Allowed).To(BeTrue())
			Expect(newValidator(false).Handle(ctx, updateRequest(wsns, oldWSNS)).Allowed).To(BeFalse())
		})

		It("Should allow updates that keep the namespace", func() {
			oldWSNS := composeWSNS()
			oldWSNS.Status.Namespace = defaultNamespace
			wsns := oldWSNS.DeepCopy()
			wsns.Spec.DeleteNamespace = true

			Expect(newValidator(false).Handle(ctx, updateRequest(wsns, oldWSNS)).Allowed).To(BeTrue())
		})
	})
})
