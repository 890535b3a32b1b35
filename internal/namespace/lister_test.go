package namespace

import (
	"context"
	"errors"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	. "github.com/dana-team/wsns/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

func names(namespaces []Meta) []string {
	var result []string
	for _, ns := range namespaces {
		result = append(result, ns.Name)
	}
	return result
}

func defaults(namespaces []Meta) []string {
	var result []string
	for _, ns := range namespaces {
		if ns.Attributes[wsnsv1.DefaultAttribute] == wsnsv1.True {
			result = append(result, ns.Name)
		}
	}
	return result
}

var _ = Describe("List", func() {
	ctx := context.Background()

	candidates := func() []client.Object {
		return []client.Object{
			ComposeNamespace("jondoe-che", ownerLabels, map[string]string{"owner": "jondoe"}),
			ComposeNamespace("some-other-che", ownerLabels, map[string]string{"owner": "some_other_user"}),
			ComposeNamespace("jondoe-another", ownerLabels, map[string]string{"owner": "jondoe"}),
			ComposeNamespace("jondoe-unlabelled", nil, map[string]string{"owner": "jondoe"}),
		}
	}

	It("Should return only the namespaces owned by the user, in a stable order", func() {
		provisioner, _ := newProvisioner(NewClient(candidates()...), defaultProvisionerOptions())

		namespaces, err := provisioner.List(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(namespaces)).To(Equal([]string{"jondoe-another", "jondoe-che"}))
		Expect(defaults(namespaces)).To(Equal([]string{"jondoe-che"}))
		Expect(namespaces[0].Attributes).To(HaveKeyWithValue(wsnsv1.PhaseAttribute, "Active"))

		again, err := provisioner.List(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(namespaces))
	})

	It("Should add the default namespace when it does not exist yet", func() {
		provisioner, _ := newProvisioner(NewClient(candidates()[1:]...), defaultProvisionerOptions())

		namespaces, err := provisioner.List(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(namespaces)).To(Equal([]string{"jondoe-another", "jondoe-che"}))
		Expect(defaults(namespaces)).To(Equal([]string{"jondoe-che"}))
		Expect(namespaces[1].Attributes).NotTo(HaveKey(wsnsv1.PhaseAttribute))
	})

	It("Should report the phase of an existing default namespace it could not list", func() {
		c := NewClient(ComposeNamespace("jondoe-che", nil, nil))
		provisioner, _ := newProvisioner(c, defaultProvisionerOptions())

		namespaces, err := provisioner.List(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(namespaces).To(HaveLen(1))
		Expect(namespaces[0].Attributes).To(HaveKeyWithValue(wsnsv1.DefaultAttribute, wsnsv1.True))
		Expect(namespaces[0].Attributes).To(HaveKeyWithValue(wsnsv1.PhaseAttribute, "Active"))
	})

	It("Should fall back to the default namespace when listing is forbidden", func() {
		c := NewClientWithInterceptors(ForbidList("NamespaceList"), candidates()...)
		provisioner, _ := newProvisioner(c, defaultProvisionerOptions())

		namespaces, err := provisioner.List(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(namespaces)).To(Equal([]string{"jondoe-che"}))
		Expect(defaults(namespaces)).To(Equal([]string{"jondoe-che"}))
	})

	It("Should fail on other listing errors", func() {
		c := NewClientWithInterceptors(FailList("NamespaceList", apierrors.NewInternalError(errors.New("timeout"))))
		provisioner, _ := newProvisioner(c, defaultProvisionerOptions())

		_, err := provisioner.List(ctx, jondoe)
		Expect(common.IsInfrastructureError(err)).To(BeTrue())
	})

	It("Should not add a default namespace when no template is configured", func() {
		opts := defaultProvisionerOptions()
		opts.template = ""
		opts.allowUserDefined = true
		provisioner, _ := newProvisioner(NewClient(candidates()...), opts)

		namespaces, err := provisioner.List(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(namespaces)).To(Equal([]string{"jondoe-another", "jondoe-che"}))
		Expect(defaults(namespaces)).To(BeEmpty())
	})

	It("Should list projects with their display attributes on OpenShift", func() {
		annotations := map[string]string{"owner": "jondoe", wsnsv1.OpenShiftDisplayName: "Jon's workspace"}
		c := NewClient(ComposeProject("jondoe-che", ownerLabels, annotations))
		opts := defaultProvisionerOptions()
		opts.flavor = &OpenShift{}
		provisioner, _ := newProvisioner(c, opts)

		namespaces, err := provisioner.List(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(namespaces).To(HaveLen(1))
		Expect(namespaces[0].Attributes).To(HaveKeyWithValue(wsnsv1.DisplayNameAttribute, "Jon's workspace"))
		Expect(namespaces[0].Attributes).To(HaveKeyWithValue(wsnsv1.DefaultAttribute, wsnsv1.True))
	})
})

var _ = Describe("FetchDefault", func() {
	ctx := context.Background()

	It("Should set the phase only when the default namespace exists", func() {
		provisioner, _ := newProvisioner(NewClient(), defaultProvisionerOptions())
		meta, err := provisioner.FetchDefault(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Name).To(Equal(defaultNamespace))
		Expect(meta.Attributes).To(Equal(map[string]string{wsnsv1.DefaultAttribute: wsnsv1.True}))

		provisioner, _ = newProvisioner(NewClient(ComposeNamespace(defaultNamespace, nil, nil)), defaultProvisionerOptions())
		meta, err = provisioner.FetchDefault(ctx, jondoe)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Attributes).To(HaveKeyWithValue(wsnsv1.PhaseAttribute, "Active"))
	})

	It("Should fail when no default namespace is configured", func() {
		opts := defaultProvisionerOptions()
		opts.template = ""
		opts.allowUserDefined = true
		provisioner, _ := newProvisioner(NewClient(), opts)

		_, err := provisioner.FetchDefault(ctx, jondoe)
		Expect(common.IsValidationError(err)).To(BeTrue())
	})
})
