package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubernetesBackend implements Backend for Kubernetes Secret objects.
// Secret names take the form "name" or "namespace/name".
type KubernetesBackend struct {
	client    kubernetes.Interface
	namespace string
}

// NewKubernetesBackend connects with the in-cluster service account, falling
// back to KUBECONFIG or ~/.kube/config outside a cluster.
func NewKubernetesBackend(namespace string) (*KubernetesBackend, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		cfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
		}
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return newKubernetesBackend(client, namespace), nil
}

func newKubernetesBackend(client kubernetes.Interface, namespace string) *KubernetesBackend {
	if namespace == "" {
		namespace = metav1.NamespaceDefault
	}
	return &KubernetesBackend{client: client, namespace: namespace}
}

func (b *KubernetesBackend) Name() string { return "kubernetes" }

// GetSecretValue returns the secret data as a JSON object of its keys.
// A secret whose only entry is non UTF-8 is binary. Non UTF-8 data next to
// other entries cannot be represented and fails with ErrUnsupportedFormat.
func (b *KubernetesBackend) GetSecretValue(ctx context.Context, name string) (*Value, error) {
	namespace, secretName, err := b.splitName(name)
	if err != nil {
		return nil, err
	}

	secret, err := b.client.CoreV1().Secrets(namespace).Get(ctx, secretName, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, nil
	}

	keys := make([]string, 0, len(secret.Data))
	for k := range secret.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]string, len(keys))
	for _, k := range keys {
		raw := secret.Data[k]
		if !utf8.Valid(raw) {
			if len(keys) == 1 {
				return BinaryValue(raw), nil
			}
			return nil, fmt.Errorf("%w: secret %s has binary entry %q among %d entries", ErrUnsupportedFormat, name, k, len(keys))
		}
		fields[k] = string(raw)
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode secret %s: %w", name, err)
	}
	return StringValue(string(payload)), nil
}

func (b *KubernetesBackend) splitName(name string) (string, string, error) {
	parts := strings.Split(name, "/")
	switch {
	case len(parts) == 1:
		return b.namespace, parts[0], nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("%w: secret name %q must be name or namespace/name", ErrInvalidParameter, name)
	}
}

// Close is a no-op; the clientset holds no resources beyond its HTTP transport.
func (b *KubernetesBackend) Close() error {
	return nil
}
