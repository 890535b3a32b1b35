package objectcontext

import (
	"context"
	"errors"

	. "github.com/dana-team/wsns/pkg/testutils"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const namespace = "jondoe-che"

func composeSecret(name string, labels map[string]string) *corev1.Secret {
	return &corev1.Secret{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: labels}}
}

var _ = Describe("ObjectContext", func() {
	ctx := context.Background()

	It("Should report a missing object as not present", func() {
		nsObject, err := New(ctx, NewClient(), types.NamespacedName{Name: namespace}, &corev1.Namespace{})
		Expect(err).NotTo(HaveOccurred())
		Expect(nsObject.IsPresent()).To(BeFalse())
		Expect(nsObject.GetKindName()).To(Equal("Namespace"))
	})

	It("Should report a forbidden read as an error unless probing", func() {
		c := NewClientWithInterceptors(ForbidGet("Namespace"), ComposeNamespace(namespace, nil, nil))

		_, err := New(ctx, c, types.NamespacedName{Name: namespace}, &corev1.Namespace{})
		Expect(err).To(HaveOccurred())

		nsObject, err := Probe(ctx, c, types.NamespacedName{Name: namespace}, &corev1.Namespace{})
		Expect(err).NotTo(HaveOccurred())
		Expect(nsObject.IsPresent()).To(BeFalse())
	})

	It("Should create an object once and tell whether it created it", func() {
		c := NewClient()

		first := ForObject(ctx, c, composeSecret("credentials", nil))
		Expect(first.EnsureCreate()).To(Succeed())
		Expect(first.IsPresent()).To(BeTrue())
		Expect(first.Created()).To(BeTrue())

		second := ForObject(ctx, c, composeSecret("credentials", nil))
		Expect(second.CreateObject()).To(Succeed())
		Expect(second.IsPresent()).To(BeTrue())
		Expect(second.Created()).To(BeFalse())
	})

	It("Should only patch metadata that is missing or different", func() {
		c := NewClient(ComposeNamespace(namespace, map[string]string{"team": "a"}, nil))

		nsObject, err := New(ctx, c, types.NamespacedName{Name: namespace}, &corev1.Namespace{})
		Expect(err).NotTo(HaveOccurred())

		patched, err := nsObject.MergeMetadata(map[string]string{"team": "a"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(patched).To(BeFalse())

		patched, err = nsObject.MergeMetadata(map[string]string{"owner": "jondoe"}, map[string]string{"note": "x"})
		Expect(err).NotTo(HaveOccurred())
		Expect(patched).To(BeTrue())

		ns := &corev1.Namespace{}
		Expect(c.Get(ctx, types.NamespacedName{Name: namespace}, ns)).To(Succeed())
		Expect(ns.Labels).To(Equal(map[string]string{"team": "a", "owner": "jondoe"}))
		Expect(ns.Annotations).To(HaveKeyWithValue("note", "x"))
	})

	It("Should refuse to update or patch an object that is not present", func() {
		secret := ForObject(ctx, NewClient(), composeSecret("credentials", nil))

		_, err := secret.MergeMetadata(map[string]string{"a": "b"}, nil)
		Expect(err).To(HaveOccurred())
		Expect(secret.UpdateObject(func(object client.Object, log logr.Logger) (client.Object, logr.Logger) {
			return object, log
		})).NotTo(Succeed())
	})

	It("Should update a present object", func() {
		c := NewClient(composeSecret("profile", nil))

		secret, err := New(ctx, c, types.NamespacedName{Namespace: namespace, Name: "profile"}, &corev1.Secret{})
		Expect(err).NotTo(HaveOccurred())
		Expect(secret.UpdateObject(func(object client.Object, log logr.Logger) (client.Object, logr.Logger) {
			object.(*corev1.Secret).Data = map[string][]byte{"id": []byte("user123")}
			return object, log
		})).To(Succeed())

		updated := &corev1.Secret{}
		Expect(c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: "profile"}, updated)).To(Succeed())
		Expect(updated.Data).To(HaveKeyWithValue("id", []byte("user123")))
	})

	It("Should delete present objects and ignore missing ones", func() {
		c := NewClient(composeSecret("credentials", nil))

		secret, err := New(ctx, c, types.NamespacedName{Namespace: namespace, Name: "credentials"}, &corev1.Secret{})
		Expect(err).NotTo(HaveOccurred())
		Expect(secret.EnsureDelete()).To(Succeed())
		Expect(secret.IsPresent()).To(BeFalse())

		missing := ForObject(ctx, c, composeSecret("credentials", nil))
		Expect(missing.DeleteObject()).To(Succeed())
	})
})

var _ = Describe("ObjectContextList", func() {
	ctx := context.Background()
	selected := map[string]string{"workspace": "ws-1"}

	It("Should delete every listed object", func() {
		c := NewClient(composeSecret("a", selected), composeSecret("b", selected), composeSecret("c", nil))

		secrets, err := NewList(ctx, c, &corev1.SecretList{}, client.InNamespace(namespace), client.MatchingLabels(selected))
		Expect(err).NotTo(HaveOccurred())
		Expect(secrets.DeleteAll()).To(Succeed())

		remaining := &corev1.SecretList{}
		Expect(c.List(ctx, remaining, client.InNamespace(namespace))).To(Succeed())
		Expect(remaining.Items).To(HaveLen(1))
		Expect(remaining.Items[0].Name).To(Equal("c"))
	})

	It("Should attempt every deletion and aggregate the failures", func() {
		c := NewClientWithInterceptors(FailDelete(errors.New("etcd unavailable"), "Secret"),
			composeSecret("a", selected), composeSecret("b", selected))

		secrets, err := NewList(ctx, c, &corev1.SecretList{}, client.InNamespace(namespace))
		Expect(err).NotTo(HaveOccurred())

		err = secrets.DeleteAll()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(`failed to delete Secret "a"`))
		Expect(err.Error()).To(ContainSubstring(`failed to delete Secret "b"`))
	})

	It("Should return list failures", func() {
		c := NewClientWithInterceptors(FailList("SecretList", errors.New("timeout")))

		_, err := NewList(ctx, c, &corev1.SecretList{})
		Expect(err).To(HaveOccurred())
	})
})
