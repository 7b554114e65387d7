// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"iwlan.dev/epdgctl/internal/ierrors"
)

// LoadFile reads and decodes the static daemon config at path, applying
// spec.md §1.3's documented defaults to any block left unset.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ierrors.Wrap(err, ierrors.KindInternal, "config: failed to read file")
	}
	return LoadBytes(path, data)
}

// LoadBytes decodes HCL source already in memory, as LoadFile does for a
// file on disk.
func LoadBytes(filename string, data []byte) (*Config, error) {
	cfg := Default()
	if err := hclsimple.Decode(filename, data, nil, cfg); err != nil {
		return nil, ierrors.Wrap(err, ierrors.KindInvalidArg, "config: failed to decode HCL")
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	}
	return cfg, nil
}
