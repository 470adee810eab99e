package bundle

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed packages.yaml
var defaultPackages []byte

// DefaultPackages returns the built-in package list.
func DefaultPackages() ([]Package, error) {
	return parsePackages(defaultPackages)
}

// LoadPackagesFile reads a package list from a YAML file.
func LoadPackagesFile(path string) ([]Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open packages file: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read packages file: %w", err)
	}
	return parsePackages(body)
}

func parsePackages(body []byte) ([]Package, error) {
	var pkgs []Package
	if err := yaml.Unmarshal(body, &pkgs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	seen := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("%w: missing or duplicate id %q", ErrInvalidDefinition, p.ID)
		}
		seen[p.ID] = true
		if len(p.Items) == 0 {
			return nil, fmt.Errorf("%w: package %s has no items", ErrInvalidDefinition, p.ID)
		}
		for _, it := range p.Items {
			if it.ID == "" || it.Quantity <= 0 {
				return nil, fmt.Errorf("%w: package %s has an item without id or quantity", ErrInvalidDefinition, p.ID)
			}
		}
	}
	return pkgs, nil
}
