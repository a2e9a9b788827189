package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	BackendAWS        = "aws"
	BackendBao        = "bao"
	BackendKubernetes = "kubernetes"
	BackendGCP        = "gcp"
)

// Config selects and configures the secret store backend.
type Config struct {
	Backend string `yaml:"backend"`

	BaoAddr  string `yaml:"bao_addr"`
	BaoToken string `yaml:"bao_token"`
	BaoMount string `yaml:"bao_mount"`

	K8sNamespace string `yaml:"k8s_namespace"`

	GCPProject string `yaml:"gcp_project"`
}

// LoadConfig reads the backend configuration. A YAML file named by
// SECRETS_CONFIG_FILE is applied first and environment variables override it.
// SECRETS_BACKEND defaults to aws; AWS itself is configured entirely by the
// SDK's ambient region and credential chain.
func LoadConfig() (Config, error) {
	cfg := Config{
		Backend:      BackendAWS,
		BaoMount:     "secret",
		K8sNamespace: metav1.NamespaceDefault,
	}

	if path := os.Getenv("SECRETS_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read secrets config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse secrets config %s: %w", path, err)
		}
	}

	cfg.Backend = strings.ToLower(getEnv("SECRETS_BACKEND", cfg.Backend))
	cfg.BaoAddr = getEnv("BAO_ADDR", cfg.BaoAddr)
	cfg.BaoToken = getEnv("BAO_TOKEN", cfg.BaoToken)
	cfg.BaoMount = getEnv("BAO_MOUNT", cfg.BaoMount)
	cfg.K8sNamespace = getEnv("K8S_NAMESPACE", cfg.K8sNamespace)
	cfg.GCPProject = getEnv("GCP_PROJECT", getEnv("GOOGLE_CLOUD_PROJECT", cfg.GCPProject))

	switch cfg.Backend {
	case BackendAWS, BackendBao, BackendKubernetes:
	case BackendGCP:
		if cfg.GCPProject == "" {
			return Config{}, fmt.Errorf("GCP_PROJECT is required for the %s backend", BackendGCP)
		}
	default:
		return Config{}, fmt.Errorf("unknown SECRETS_BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}

// Open constructs the backend selected by cfg.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case BackendAWS, "":
		backend, err = NewAWSBackend(ctx)
	case BackendBao:
		backend, err = NewBaoProvider(cfg.BaoAddr, cfg.BaoToken, cfg.BaoMount)
	case BackendKubernetes:
		backend, err = NewKubernetesBackend(cfg.K8sNamespace)
	case BackendGCP:
		backend, err = NewGCPBackend(ctx, cfg.GCPProject)
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
