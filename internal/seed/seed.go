package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

// Catalog — предзаполненный справочник из YAML-файла.
type Catalog struct {
	Name    string       `yaml:"name"`
	Fields  []seedField  `yaml:"fields"`
	Records []seedRecord `yaml:"records"`
}

type seedField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type seedRecord struct {
	Values map[string]any `yaml:"values"`
}

// Load читает все *.yaml/*.yml из папки.
func Load(dir string) ([]Catalog, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	result := make([]Catalog, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var cat Catalog
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// Имя каталога — из name или из имени файла
		if cat.Name == "" {
			cat.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		result = append(result, cat)
	}
	return result, nil
}

// Apply создаёт каталоги в хранилище. Применяется только к пустому
// хранилищу: если справочники уже есть, сиды пропускаются.
func Apply(ctx context.Context, st storage.Store, catalogs []Catalog) error {
	existing, err := st.ListDirectories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, cat := range catalogs {
		fields := make([]model.Field, 0, len(cat.Fields))
		for _, f := range cat.Fields {
			t := model.FieldType(strings.ToUpper(strings.TrimSpace(f.Type)))
			if t == "" {
				t = model.FieldString
			}
			if !t.Valid() {
				return fmt.Errorf("catalog %q: field %q: unknown type %q", cat.Name, f.Name, f.Type)
			}
			// ссылочные поля в сидах не поддерживаем: порядок создания
			// каталогов не определён
			if t == model.FieldReference {
				return fmt.Errorf("catalog %q: field %q: DIRECTORY_REFERENCE is not supported in seeds", cat.Name, f.Name)
			}
			fields = append(fields, model.Field{Name: f.Name, Type: t})
		}

		created, err := st.CreateDirectory(ctx, model.DirectoryCreate{Name: cat.Name, Fields: fields})
		if err != nil {
			return fmt.Errorf("catalog %q: %w", cat.Name, err)
		}
		for i, r := range cat.Records {
			if _, err := st.CreateRecord(ctx, created.ID, r.Values); err != nil {
				return fmt.Errorf("catalog %q: record %d: %w", cat.Name, i, err)
			}
		}
	}
	return nil
}
