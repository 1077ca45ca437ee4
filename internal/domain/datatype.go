package domain

import "strings"

// DataType - тег внутреннего типа параметра сообщения или свойства актора.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeBool
	DataTypeInt
	DataTypeUInt
	DataTypeFloat
	DataTypeDouble
	DataTypeString
	DataTypeEnum
	DataTypeVec3
	DataTypeActor
	DataTypeArray
)

// Маппинг для конвертации конфигурации -> Domain
var dataTypeStringToType = map[string]DataType{
	"BOOL":   DataTypeBool,
	"INT":    DataTypeInt,
	"UINT":   DataTypeUInt,
	"FLOAT":  DataTypeFloat,
	"DOUBLE": DataTypeDouble,
	"STRING": DataTypeString,
	"ENUM":   DataTypeEnum,
	"VEC3":   DataTypeVec3,
	"ACTOR":  DataTypeActor,
	"ARRAY":  DataTypeArray,
}

// Маппинг для логов Domain -> String
var dataTypeToString = map[DataType]string{
	DataTypeBool:   "BOOL",
	DataTypeInt:    "INT",
	DataTypeUInt:   "UINT",
	DataTypeFloat:  "FLOAT",
	DataTypeDouble: "DOUBLE",
	DataTypeString: "STRING",
	DataTypeEnum:   "ENUM",
	DataTypeVec3:   "VEC3",
	DataTypeActor:  "ACTOR",
	DataTypeArray:  "ARRAY",
}

// ParseDataType конвертирует имя типа из конфигурации в DataType.
func ParseDataType(s string) DataType {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if val, ok := dataTypeStringToType[upper]; ok {
		return val
	}
	return DataTypeUnknown
}

// DataTypeNames возвращает имена всех известных типов (для JSON Schema).
func DataTypeNames() []string {
	names := make([]string, 0, len(dataTypeToString))
	for t := DataTypeBool; t <= DataTypeArray; t++ {
		names = append(names, strings.ToLower(dataTypeToString[t]))
	}
	return names
}

// String реализует интерфейс Stringer.
func (t DataType) String() string {
	if val, ok := dataTypeToString[t]; ok {
		return val
	}
	return "UNKNOWN"
}

// IsNumeric сообщает, хранит ли тип число.
func (t DataType) IsNumeric() bool {
	switch t {
	case DataTypeInt, DataTypeUInt, DataTypeFloat, DataTypeDouble:
		return true
	}
	return false
}
