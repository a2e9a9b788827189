package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{
			name: "Defaults to aws",
			env:  map[string]string{},
			want: Config{Backend: BackendAWS, BaoMount: "secret", K8sNamespace: "default"},
		},
		{
			name: "Bao with custom mount",
			env: map[string]string{
				"SECRETS_BACKEND": "BAO",
				"BAO_ADDR":        "http://bao:8200",
				"BAO_TOKEN":       "s.token",
				"BAO_MOUNT":       "kv",
			},
			want: Config{Backend: BackendBao, BaoAddr: "http://bao:8200", BaoToken: "s.token", BaoMount: "kv", K8sNamespace: "default"},
		},
		{
			name: "Kubernetes namespace",
			env:  map[string]string{"SECRETS_BACKEND": "kubernetes", "K8S_NAMESPACE": "payments"},
			want: Config{Backend: BackendKubernetes, BaoMount: "secret", K8sNamespace: "payments"},
		},
		{
			name: "GCP project fallback",
			env:  map[string]string{"SECRETS_BACKEND": "gcp", "GOOGLE_CLOUD_PROJECT": "acme"},
			want: Config{Backend: BackendGCP, BaoMount: "secret", K8sNamespace: "default", GCPProject: "acme"},
		},
		{
			name:    "GCP without project",
			env:     map[string]string{"SECRETS_BACKEND": "gcp"},
			wantErr: true,
		},
		{
			name:    "Unknown backend",
			env:     map[string]string{"SECRETS_BACKEND": "keepass"},
			wantErr: true,
		},
	}

	keys := []string{"SECRETS_CONFIG_FILE", "SECRETS_BACKEND", "BAO_ADDR", "BAO_TOKEN", "BAO_MOUNT", "K8S_NAMESPACE", "GCP_PROJECT", "GOOGLE_CLOUD_PROJECT"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range keys {
				t.Setenv(k, tt.env[k])
			}

			got, err := LoadConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadConfig() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("LoadConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	for _, k := range []string{"SECRETS_BACKEND", "BAO_ADDR", "BAO_TOKEN", "BAO_MOUNT", "K8S_NAMESPACE", "GCP_PROJECT", "GOOGLE_CLOUD_PROJECT"} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.yaml")
	content := "backend: bao\nbao_addr: http://bao:8200\nbao_mount: kv\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("SECRETS_CONFIG_FILE", path)

	t.Run("File values with defaults", func(t *testing.T) {
		got, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() unexpected error: %v", err)
		}
		want := Config{Backend: BackendBao, BaoAddr: "http://bao:8200", BaoMount: "kv", K8sNamespace: "default"}
		if got != want {
			t.Errorf("LoadConfig() = %+v, want %+v", got, want)
		}
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("BAO_MOUNT", "secret-v2")
		got, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() unexpected error: %v", err)
		}
		if got.BaoMount != "secret-v2" {
			t.Errorf("BaoMount = %q, want %q", got.BaoMount, "secret-v2")
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		t.Setenv("SECRETS_CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() with missing file should fail")
		}
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(bad, []byte("backend: [aws"), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		t.Setenv("SECRETS_CONFIG_FILE", bad)
		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() with invalid YAML should fail")
		}
	})
}

func TestOpen(t *testing.T) {
	t.Run("Bao", func(t *testing.T) {
		backend, err := Open(context.Background(), Config{Backend: BackendBao, BaoAddr: "http://localhost:8200"})
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		if _, ok := backend.(*BaoProvider); !ok {
			t.Errorf("Open() = %T, want *BaoProvider", backend)
		}
	})

	t.Run("Unknown backend", func(t *testing.T) {
		backend, err := Open(context.Background(), Config{Backend: "keepass"})
		if err == nil {
			t.Fatalf("Open() = %T, want error", backend)
		}
		if backend != nil {
			t.Errorf("Open() returned non-nil backend %T with error", backend)
		}
	})
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("SECRETS_CONFIG_FILE", "")
	t.Setenv("SECRETS_BACKEND", "bao")
	t.Setenv("BAO_ADDR", "http://localhost:8200")
	t.Setenv("BAO_TOKEN", "test-token")

	a, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewFromEnv() failed: %v", err)
	}
	if a.name != BackendBao {
		t.Errorf("backend = %q, want %q", a.name, BackendBao)
	}
	if msg := a.Release(); msg != "" {
		t.Errorf("Release() = %q, want empty", msg)
	}

	t.Setenv("SECRETS_BACKEND", "keepass")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Error("NewFromEnv() with unknown backend should fail")
	}
}
