package migration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// definitionFile is the YAML layout of one migration file:
//
//	version: 1.1.0
//	name: add analytics
//	author: search-team
//	depends_on: [1.0.0]
//	changes:
//	  - kind: create_collection
//	    config: {name: analytics, dimension: 512, distance: DotProduct}
//	  - kind: add_index
//	    collection: analytics
//	    field: tenant
//	    index_kind: keyword
type definitionFile struct {
	Version        Version    `yaml:"version"`
	Name           string     `yaml:"name"`
	Author         string     `yaml:"author"`
	Description    string     `yaml:"description"`
	CreatedAt      *time.Time `yaml:"created_at"`
	DependsOn      []Version  `yaml:"depends_on"`
	BreakingChange bool       `yaml:"breaking_change"`
	Reversible     *bool      `yaml:"reversible"`
	Changes        ChangeList `yaml:"changes"`
	Contracts      []Contract `yaml:"contracts"`
}

// ParseDefinition decodes one YAML migration. Unknown keys are rejected.
func ParseDefinition(data []byte) (SchemaMigration, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def definitionFile
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return SchemaMigration{}, fmt.Errorf("%w: empty definition", ErrInvalidMigration)
		}
		return SchemaMigration{}, fmt.Errorf("%w: %v", ErrInvalidMigration, err)
	}
	if def.Version.IsZero() {
		return SchemaMigration{}, fmt.Errorf("%w: version is required", ErrInvalidMigration)
	}

	b := NewBuilder(def.Version, def.Name).
		Description(def.Description).
		DependsOn(def.DependsOn...)
	if def.Author != "" {
		b.Author(def.Author)
	}
	if def.CreatedAt != nil {
		b.CreatedAt(*def.CreatedAt)
	}
	if def.BreakingChange {
		b.BreakingChange()
	}
	if def.Reversible != nil && !*def.Reversible {
		b.NonReversible()
	}
	for _, change := range def.Changes {
		b.AddChange(change)
	}
	for _, contract := range def.Contracts {
		b.AddContract(contract)
	}
	return b.Build(), nil
}

// LoadDefinitions reads every *.yaml and *.yml file in dir and returns the
// migrations sorted by version. Two files with the same version are an error.
func LoadDefinitions(dir string) ([]SchemaMigration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", dir, err)
	}

	var (
		migrations []SchemaMigration
		files      = make(map[string]string)
	)
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		m, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for version, other := range files {
			if MustParseVersion(version).Equal(m.Version) {
				return nil, fmt.Errorf("%w: %s is defined in %s and %s", ErrDuplicateVersion, m.Version, other, file)
			}
		}
		files[m.Version.String()] = file
		migrations = append(migrations, m)
	}

	SortByVersion(migrations)
	return migrations, nil
}
