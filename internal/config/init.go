package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const scaffoldOutline = `# Summary

- [Introduction](introduction.md)

# Designing the API

- [Resources and Naming](design/naming.md)
- [Versioning](design/versioning.md)

# Reference

- [Glossary](glossary.md)
- [Future Topics]()
`

const scaffoldIntroduction = `# Introduction

Welcome. This handbook collects the conventions this team follows when
designing and documenting HTTP APIs.
`

const scaffoldNaming = `# Resources and Naming

Name resources with plural nouns. Avoid verbs in paths.
`

const scaffoldVersioning = `# Versioning

Version in the URL path. See [Resources and Naming](naming.md) before
introducing a new major version.
`

const scaffoldGlossary = `# Glossary

**Resource** - an addressable entity exposed by the API.
`

// Init creates a new configuration file plus a minimal book skeleton.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	fallback := true
	searchIndex := true
	exampleConfig := Config{
		Book: BookConfig{
			Title:       "API Design Handbook",
			Description: "Conventions for designing and documenting HTTP APIs",
			ContentRoot: "./src",
			Outline:     "SUMMARY.md",
		},
		Resolver: ResolverConfig{
			PathFallback: &fallback,
			Workers:      8,
		},
		Output: OutputConfig{
			Directory:   "./book",
			Clean:       true,
			SearchIndex: &searchIndex,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	base := filepath.Dir(configPath)
	scaffold := []struct {
		path    string
		content string
	}{
		{filepath.Join(base, "src", "SUMMARY.md"), scaffoldOutline},
		{filepath.Join(base, "src", "introduction.md"), scaffoldIntroduction},
		{filepath.Join(base, "src", "design", "naming.md"), scaffoldNaming},
		{filepath.Join(base, "src", "design", "versioning.md"), scaffoldVersioning},
		{filepath.Join(base, "src", "glossary.md"), scaffoldGlossary},
	}

	for _, f := range scaffold {
		if _, err := os.Stat(f.path); err == nil && !force {
			continue // never clobber existing content
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(f.path), err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}

	return nil
}
