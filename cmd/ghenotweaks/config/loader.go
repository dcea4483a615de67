// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source says where a loaded configuration came from.
type Source string

const (
	// SourceFile means the file existed and was parsed.
	SourceFile Source = "file"

	// SourceCreated means the file was missing and defaults were written
	// to it.
	SourceCreated Source = "created"

	// SourceDefaults means the file was missing and could not be created;
	// defaults are used in memory.
	SourceDefaults Source = "defaults"
)

// configValidate reports fields by their YAML names.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	configValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Load reads the configuration at path.
//
// # Description
//
// A missing file is created with DefaultConfig, following the first-run
// behaviour of the CLI. If it cannot be created (for example when not
// running as root) the defaults are still returned. Keys absent from the
// file keep their default values. The result is validated.
//
// # Outputs
//
//   - GhenoConfig: The validated configuration.
//   - Source: Where it came from.
//   - error: Read, parse or validation failure.
func Load(path string) (GhenoConfig, Source, error) {
	if path == "" {
		path = DefaultPath
	}

	source := SourceFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := createDefault(path); err != nil {
			return cfg, SourceDefaults, nil
		}
		source = SourceCreated
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return GhenoConfig{}, source, fmt.Errorf("failed to read the config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return GhenoConfig{}, source, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, source, nil
}

// Parse decodes YAML on top of DefaultConfig and validates the result.
func Parse(data []byte) (GhenoConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GhenoConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return GhenoConfig{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags on every field.
func (c *GhenoConfig) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q", yamlPath(fe.Namespace()), tagWithParam(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func tagWithParam(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// yamlPath drops the root type from a validator namespace, e.g.
// "GhenoConfig.tweaks.grub.timeout" becomes "tweaks.grub.timeout".
func yamlPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
