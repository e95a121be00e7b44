package model

// Типы полей справочника. Значения совпадают с тем, что ходит по REST.
type FieldType string

const (
	FieldString    FieldType = "STRING"
	FieldNumber    FieldType = "NUMBER"
	FieldReference FieldType = "DIRECTORY_REFERENCE"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldNumber, FieldReference:
		return true
	}
	return false
}

// Field — одно поле схемы справочника. Порядок полей значим (он задаёт
// раскладку колонок). DirectoryID обязателен только для ссылочных полей.
type Field struct {
	Name        string    `json:"name" binding:"required"`
	Type        FieldType `json:"type" binding:"required"`
	DirectoryID *int64    `json:"directoryId"`
}

// Directory — справочник, подтверждённый бэкендом (ответ create/update).
type Directory struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Code   string  `json:"code"`
	Fields []Field `json:"fields"`
}

// DirectoryCreate — payload создания (код и id назначает сервер).
type DirectoryCreate struct {
	Name   string  `json:"name" binding:"required"`
	Fields []Field `json:"fields" binding:"required"`
}

// DirectoryAndCount — элемент списка GET /api/directories: справочник
// плюс агрегаты по полям и записям.
type DirectoryAndCount struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Fields      []Field `json:"fields"`
	FieldCount  int64   `json:"fieldCount"`
	RecordCount int64   `json:"recordCount"`
}

// Record — запись справочника: id + значения по именам полей.
type Record struct {
	ID     int64          `json:"id"`
	Values map[string]any `json:"values"`
}

type PageInfo struct {
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// RecordPage — страница записей в формате Spring PagedModel.
type RecordPage struct {
	Content []Record `json:"content"`
	Page    PageInfo `json:"page"`
}

// FirstStringField возвращает имя первого строкового поля схемы —
// по нему строятся человекочитаемые подписи ссылочных значений.
func FirstStringField(fields []Field) (string, bool) {
	for _, f := range fields {
		if f.Type == FieldString {
			return f.Name, true
		}
	}
	return "", false
}
