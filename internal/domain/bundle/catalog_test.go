package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPackagesParse(t *testing.T) {
	pkgs, err := DefaultPackages()
	if err != nil {
		t.Fatalf("default packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatal("expected built-in packages")
	}
	for _, p := range pkgs {
		if p.Price <= 0 || len(p.DisplayItems) == 0 {
			t.Fatalf("package %s incomplete: %+v", p.ID, p)
		}
	}
}

func TestParsePackagesRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not yaml list", "id: x"},
		{"duplicate id", "- {id: a, items: [{id: x, quantity: 1}]}\n- {id: a, items: [{id: y, quantity: 1}]}"},
		{"no items", "- {id: a, name: A}"},
		{"zero quantity", "- {id: a, items: [{id: x, quantity: 0}]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePackages([]byte(tt.body)); !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}
}

func TestLoadPackagesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.yaml")
	body := "- id: solo\n  name: Solo\n  price: 10\n  items:\n    - {id: cam, name: Camera, quantity: 1}\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	pkgs, err := LoadPackagesFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Items[0].Name != "Camera" {
		t.Fatalf("unexpected packages %+v", pkgs)
	}
}
