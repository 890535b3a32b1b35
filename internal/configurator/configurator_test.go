package configurator

import (
	"context"
	"errors"

	wsnsv1 "github.com/dana-team/wsns/api/v1"
	"github.com/dana-team/wsns/internal/common"
	"github.com/dana-team/wsns/internal/naming"
	. "github.com/dana-team/wsns/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const namespace = "jondoe-che"

var jondoe = naming.Context{WorkspaceID: "workspace123", UserID: "user123", UserName: "jondoe"}

var defaultOptions = Options{
	Labels:             map[string]string{"app.kubernetes.io/part-of": "che.eclipse.org"},
	LabelNamespaces:    true,
	Annotations:        map[string]string{"che.eclipse.org/username": "<username>"},
	AnnotateNamespaces: true,
	Template:           "<username>-che",
}

type recordingConfigurator struct {
	name  string
	calls *[]string
	err   error
}

func (r *recordingConfigurator) Name() string {
	return r.name
}

func (r *recordingConfigurator) Configure(_ context.Context, _ naming.Context, _ string) error {
	*r.calls = append(*r.calls, r.name)
	return r.err
}

var _ = Describe("Run", func() {
	It("Should apply the configurators in order and stop at the first failure", func() {
		var calls []string
		configurators := []Configurator{
			&recordingConfigurator{name: "first", calls: &calls},
			&recordingConfigurator{name: "second", calls: &calls, err: errors.New("boom")},
			&recordingConfigurator{name: "third", calls: &calls},
		}

		err := Run(context.Background(), configurators, jondoe, namespace)
		Expect(common.IsInfrastructureError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("second"))
		Expect(err.Error()).To(ContainSubstring("boom"))
		Expect(calls).To(Equal([]string{"first", "second"}))
	})
})

var _ = Describe("Defaults", func() {
	var (
		ctx context.Context
		c   client.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		c = NewClient(ComposeNamespace(namespace, map[string]string{"existing": "label"}, nil))
	})

	It("Should provision the namespace and be idempotent", func() {
		opts := defaultOptions
		opts.SCMServiceAccountName = "scm"
		configurators := Defaults(c, opts)

		Expect(Run(ctx, configurators, jondoe, namespace)).To(Succeed())
		Expect(Run(ctx, configurators, jondoe, namespace)).To(Succeed())

		ns := &corev1.Namespace{}
		Expect(c.Get(ctx, types.NamespacedName{Name: namespace}, ns)).To(Succeed())
		Expect(ns.Labels).To(HaveKeyWithValue("existing", "label"))
		Expect(ns.Labels).To(HaveKeyWithValue("app.kubernetes.io/part-of", "che.eclipse.org"))
		Expect(common.IsManaged(ns)).To(BeTrue())
		Expect(ns.Annotations).To(HaveKeyWithValue("che.eclipse.org/username", "jondoe"))
		Expect(ns.Annotations).To(HaveKeyWithValue(wsnsv1.UserID, "user123"))
		Expect(ns.Annotations).To(HaveKeyWithValue(wsnsv1.NamespaceTemplate, "<username>-che"))

		secret := &corev1.Secret{}
		Expect(c.Get(ctx, types.NamespacedName{Name: wsnsv1.CredentialsSecretName, Namespace: namespace}, secret)).To(Succeed())
		Expect(common.IsManaged(secret)).To(BeTrue())

		Expect(c.Get(ctx, types.NamespacedName{Name: wsnsv1.PreferencesConfigMapName, Namespace: namespace}, &corev1.ConfigMap{})).To(Succeed())
		Expect(c.Get(ctx, types.NamespacedName{Name: "scm", Namespace: namespace}, &corev1.ServiceAccount{})).To(Succeed())

		profile := &corev1.Secret{}
		Expect(c.Get(ctx, types.NamespacedName{Name: wsnsv1.UserProfileSecretName, Namespace: namespace}, profile)).To(Succeed())
		Expect(profile.Data).To(HaveKeyWithValue(wsnsv1.UserProfileIDKey, []byte("user123")))
		Expect(profile.Data).To(HaveKeyWithValue(wsnsv1.UserProfileNameKey, []byte("jondoe")))
	})

	It("Should skip labels and annotations that are turned off", func() {
		opts := defaultOptions
		opts.LabelNamespaces = false
		opts.AnnotateNamespaces = false

		Expect((&MetaConfigurator{Client: c, Options: opts}).Configure(ctx, jondoe, namespace)).To(Succeed())

		ns := &corev1.Namespace{}
		Expect(c.Get(ctx, types.NamespacedName{Name: namespace}, ns)).To(Succeed())
		Expect(ns.Labels).NotTo(HaveKey("app.kubernetes.io/part-of"))
		Expect(ns.Annotations).NotTo(HaveKey("che.eclipse.org/username"))
		Expect(common.IsManaged(ns)).To(BeTrue())
	})

	It("Should fail when the namespace does not exist", func() {
		err := (&MetaConfigurator{Client: c, Options: defaultOptions}).Configure(ctx, jondoe, "missing")
		Expect(err).To(HaveOccurred())
	})

	It("Should not create the SCM service account when none is configured", func() {
		Expect((&ServiceAccountConfigurator{Client: c}).Configure(ctx, jondoe, namespace)).To(Succeed())

		accounts := &corev1.ServiceAccountList{}
		Expect(c.List(ctx, accounts, client.InNamespace(namespace))).To(Succeed())
		Expect(accounts.Items).To(BeEmpty())
	})

	It("Should keep the user profile in sync with the user", func() {
		profile := &UserProfileConfigurator{Client: c}
		Expect(profile.Configure(ctx, jondoe, namespace)).To(Succeed())

		renamed := jondoe
		renamed.UserName = "jon"
		Expect(profile.Configure(ctx, renamed, namespace)).To(Succeed())

		secret := &corev1.Secret{}
		Expect(c.Get(ctx, types.NamespacedName{Name: wsnsv1.UserProfileSecretName, Namespace: namespace}, secret)).To(Succeed())
		Expect(secret.Data).To(HaveKeyWithValue(wsnsv1.UserProfileNameKey, []byte("jon")))
	})

	It("Should leave an existing credentials secret untouched", func() {
		existing := &corev1.Secret{}
		existing.Name = wsnsv1.CredentialsSecretName
		existing.Namespace = namespace
		existing.Data = map[string][]byte{"token": []byte("secret")}
		Expect(c.Create(ctx, existing)).To(Succeed())

		Expect((&CredentialsSecretConfigurator{Client: c}).Configure(ctx, jondoe, namespace)).To(Succeed())

		secret := &corev1.Secret{}
		Expect(c.Get(ctx, types.NamespacedName{Name: wsnsv1.CredentialsSecretName, Namespace: namespace}, secret)).To(Succeed())
		Expect(secret.Data).To(HaveKeyWithValue("token", []byte("secret")))
	})

	It("Should report a configurator that cannot create its object", func() {
		failing := NewClientWithInterceptors(FailCreate("ConfigMap", apierrors.NewInternalError(errors.New("unavailable"))),
			ComposeNamespace(namespace, nil, nil))

		err := Run(ctx, Defaults(failing, defaultOptions), jondoe, namespace)
		Expect(common.IsInfrastructureError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("preferences-configmap"))
	})
})

var _ = Describe("ContextFromNamespace", func() {
	It("Should read back the user written by the meta configurator", func() {
		ns := ComposeNamespace(namespace, nil, userAnnotations(jondoe, "<username>-che"))

		rctx, ok := ContextFromNamespace(ns)
		Expect(ok).To(BeTrue())
		Expect(rctx).To(Equal(naming.Context{UserID: "user123", UserName: "jondoe"}))

		_, ok = ContextFromNamespace(ComposeNamespace("other", nil, nil))
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("MetaConfigurator", func() {
	It("Should keep the template a namespace was created with", func() {
		ctx := context.Background()
		c := NewClient(ComposeNamespace(namespace, nil, map[string]string{wsnsv1.NamespaceTemplate: "che-<userid>"}))

		Expect((&MetaConfigurator{Client: c, Options: defaultOptions}).Configure(ctx, jondoe, namespace)).To(Succeed())

		ns := &corev1.Namespace{}
		Expect(c.Get(ctx, types.NamespacedName{Name: namespace}, ns)).To(Succeed())
		Expect(ns.Annotations).To(HaveKeyWithValue(wsnsv1.NamespaceTemplate, "che-<userid>"))
		Expect(ns.Annotations).To(HaveKeyWithValue(wsnsv1.UserName, "jondoe"))
	})
})
