package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

// validationError — отказ валидации, наружу уходит 400 с этим сообщением.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func verr(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// validateDirectoryFields проверяет список полей при create/update:
// имена непустые, типы известны, у ссылок задан и существует directoryId.
// selfID != nil — это update, ссылка на самого себя запрещена.
func validateDirectoryFields(ctx context.Context, st storage.Store, selfID *int64, fields []model.Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return verr("Field name must not be blank")
		}
		if _, dup := seen[name]; dup {
			return verr("Field '%s' is duplicated", name)
		}
		seen[name] = struct{}{}

		if !f.Type.Valid() {
			return verr("Field '%s' has unknown type '%s'", name, f.Type)
		}
		if f.Type != model.FieldReference {
			continue
		}
		if f.DirectoryID == nil {
			return verr("Field '%s' of type DIRECTORY_REFERENCE requires directoryId", name)
		}
		if selfID != nil && *f.DirectoryID == *selfID {
			return verr("Field '%s' must not reference its own directory", name)
		}
		ok, err := st.DirectoryExists(ctx, *f.DirectoryID)
		if err != nil {
			return err
		}
		if !ok {
			return verr("Directory with id: %d not found", *f.DirectoryID)
		}
	}
	return nil
}

// coerceRecordValues валидирует и нормализует значения записи по схеме:
// STRING — строка, NUMBER — число (или числовая строка) → float64,
// DIRECTORY_REFERENCE — id существующей записи целевого справочника → int64.
// Неизвестные ключи не пропускаем.
func coerceRecordValues(ctx context.Context, st storage.Store, fields []model.Field, values map[string]any) (map[string]any, error) {
	byName := make(map[string]model.Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	for name := range values {
		if _, ok := byName[name]; !ok {
			return nil, verr("Unknown field '%s'", name)
		}
	}

	out := make(map[string]any, len(values))
	for _, f := range fields {
		v, present := values[f.Name]
		switch f.Type {
		case model.FieldString:
			if !present || v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, verr("Field '%s' must be a string", f.Name)
			}
			out[f.Name] = s

		case model.FieldNumber:
			if !present || v == nil {
				continue
			}
			n, err := toNumber(v)
			if err != nil {
				return nil, verr("Field '%s' must be a number", f.Name)
			}
			out[f.Name] = n

		case model.FieldReference:
			if f.DirectoryID == nil {
				return nil, verr("Field '%s' of type DIRECTORY_REFERENCE requires directoryId", f.Name)
			}
			// ссылка обязательна: пустое ссылочное значение не храним
			if !present || v == nil {
				return nil, verr("Field '%s' must be selected", f.Name)
			}
			id, err := toRecordID(v)
			if err != nil {
				return nil, verr("Field '%s' must be a number (record id)", f.Name)
			}
			ok, err := st.RecordExists(ctx, *f.DirectoryID, id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, verr("Record with id %d not found in directory %d", id, *f.DirectoryID)
			}
			out[f.Name] = id
		}
	}
	return out, nil
}

func toNumber(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("blank")
		}
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func toRecordID(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("blank")
		}
		return strconv.ParseInt(s, 10, 64)
	}
	return 0, fmt.Errorf("not an id: %T", v)
}
