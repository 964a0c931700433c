package backend

import (
	"context"
	"path/filepath"
	"testing"
)

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		backendType Type
		want        bool
	}{
		{SQLiteBackend, true},
		{FileBackend, true},
		{Type("sheets"), false},
		{Type(""), false},
	}

	for _, tt := range tests {
		if got := tt.backendType.IsValid(); got != tt.want {
			t.Errorf("Type(%q).IsValid() = %v, want %v", tt.backendType, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"file with directory", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without directory", Config{Type: FileBackend}, true},
		{"unknown type", Config{Type: Type("bogus")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateFileBackend(t *testing.T) {
	factory := NewFactory(nil)

	result, err := factory.CreateBackend(context.Background(), Config{
		Type:          FileBackend,
		DataDirectory: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("create file backend: %v", err)
	}
	defer result.Cleanup()

	if _, err := result.Store.ListUsers(context.Background()); err != nil {
		t.Fatalf("store not usable after creation: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	factory := NewFactory(nil)

	result, err := factory.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "finly.db"),
	})
	if err != nil {
		t.Fatalf("create sqlite backend: %v", err)
	}
	defer result.Cleanup()

	if _, err := result.Store.ListUsers(context.Background()); err != nil {
		t.Fatalf("store not usable after creation: %v", err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	factory := NewFactory(nil)

	if _, err := factory.CreateBackend(context.Background(), Config{Type: Type("bogus")}); err == nil {
		t.Fatal("expected error for invalid backend type")
	}
}
