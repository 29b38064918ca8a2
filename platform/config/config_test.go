package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMemoryDrivers(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PORT", "8081")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetHTTPAddr() != ":8081" {
		t.Fatalf("expected PORT to set the listen address, got %q", cfg.GetHTTPAddr())
	}
	if cfg.GetDocumentsFolder() != "leads_documents" {
		t.Fatalf("unexpected documents folder %q", cfg.GetDocumentsFolder())
	}
	if cfg.GetUploadMaxFileSize() != 10<<20 {
		t.Fatalf("unexpected max file size %d", cfg.GetUploadMaxFileSize())
	}
	if cfg.GetIdempotencyTTL() != 24*time.Hour {
		t.Fatalf("unexpected idempotency ttl %s", cfg.GetIdempotencyTTL())
	}
}

func TestLoadRejectsMinIOEndpointWithScheme(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("MINIO_ENDPOINT", "http://localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "key")
	t.Setenv("MINIO_SECRET_KEY", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for endpoint with scheme")
	}
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")
	t.Setenv("STORAGE_DRIVER", "memory")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when MONGO_URI is missing")
	}
}

func TestYAMLFileFillsUnsetVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.yaml")
	content := "DATABASE_DRIVER: memory\nSTORAGE_DRIVER: memory\nDOCUMENTS_FOLDER: yaml_docs\nMETRICS_PREFIX: from_yaml\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("METRICS_PREFIX", "from_env")
	// Registered so t.Setenv restores the original state after the test.
	t.Setenv("DOCUMENTS_FOLDER", "")
	os.Unsetenv("DOCUMENTS_FOLDER")
	t.Setenv("DATABASE_DRIVER", "")
	os.Unsetenv("DATABASE_DRIVER")
	t.Setenv("STORAGE_DRIVER", "")
	os.Unsetenv("STORAGE_DRIVER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetDocumentsFolder() != "yaml_docs" {
		t.Fatalf("expected yaml value, got %q", cfg.GetDocumentsFolder())
	}
	if cfg.GetMetricsPrefix() != "from_env" {
		t.Fatalf("expected environment to win over yaml, got %q", cfg.GetMetricsPrefix())
	}
}

func TestSplitCSVAndWildcard(t *testing.T) {
	values := splitCSV(" a , ,b,* ")
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %v", values)
	}
	if !containsWildcard(values) {
		t.Fatal("expected wildcard to be detected")
	}
}
