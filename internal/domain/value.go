package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Value - значение параметра сообщения или свойства актора.
//
// Набор реализаций закрыт (метод isValue не экспортируется): Bool, Int, UInt,
// Float, Double, String, Enum, Vec3, ActorRef, Array. Потребители разбирают
// значение через type switch по этим типам.
type Value interface {
	Type() DataType
	String() string
	isValue()
}

type (
	Bool     bool
	Int      int64
	UInt     uint64
	Float    float32
	Double   float64
	String   string
	Enum     string
	Vec3     mgl64.Vec3
	ActorRef uuid.UUID
)

// Array - однородный список значений.
type Array struct {
	Elem  DataType
	Items []Value
}

func (Bool) Type() DataType     { return DataTypeBool }
func (Int) Type() DataType      { return DataTypeInt }
func (UInt) Type() DataType     { return DataTypeUInt }
func (Float) Type() DataType    { return DataTypeFloat }
func (Double) Type() DataType   { return DataTypeDouble }
func (String) Type() DataType   { return DataTypeString }
func (Enum) Type() DataType     { return DataTypeEnum }
func (Vec3) Type() DataType     { return DataTypeVec3 }
func (ActorRef) Type() DataType { return DataTypeActor }
func (Array) Type() DataType    { return DataTypeArray }

func (Bool) isValue()     {}
func (Int) isValue()      {}
func (UInt) isValue()     {}
func (Float) isValue()    {}
func (Double) isValue()   {}
func (String) isValue()   {}
func (Enum) isValue()     {}
func (Vec3) isValue()     {}
func (ActorRef) isValue() {}
func (Array) isValue()    {}

func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }
func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v UInt) String() string   { return strconv.FormatUint(uint64(v), 10) }
func (v Float) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Double) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v String) String() string { return string(v) }
func (v Enum) String() string   { return string(v) }

func (v Vec3) String() string {
	return fmt.Sprintf("%s,%s,%s",
		strconv.FormatFloat(v[0], 'g', -1, 64),
		strconv.FormatFloat(v[1], 'g', -1, 64),
		strconv.FormatFloat(v[2], 'g', -1, 64))
}

func (v ActorRef) String() string {
	if uuid.UUID(v) == uuid.Nil {
		return ""
	}
	return uuid.UUID(v).String()
}

func (v Array) String() string {
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Zero возвращает нулевое значение для типа. Для DataTypeUnknown возвращает nil.
func Zero(t DataType) Value {
	switch t {
	case DataTypeBool:
		return Bool(false)
	case DataTypeInt:
		return Int(0)
	case DataTypeUInt:
		return UInt(0)
	case DataTypeFloat:
		return Float(0)
	case DataTypeDouble:
		return Double(0)
	case DataTypeString:
		return String("")
	case DataTypeEnum:
		return Enum("")
	case DataTypeVec3:
		return Vec3{}
	case DataTypeActor:
		return ActorRef(uuid.Nil)
	case DataTypeArray:
		return Array{}
	}
	return nil
}

// ParseValue разбирает текстовую запись значения (значения по умолчанию в маппингах).
func ParseValue(t DataType, s string) (Value, error) {
	s = strings.TrimSpace(s)

	switch t {
	case DataTypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return Bool(b), nil
	case DataTypeInt:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return Int(int64(f)), nil
	case DataTypeUInt:
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return UInt(u), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("parse %s %q: invalid unsigned value", t, s)
		}
		return UInt(uint64(f)), nil
	case DataTypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return Float(float32(f)), nil
	case DataTypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return Double(f), nil
	case DataTypeString:
		return String(s), nil
	case DataTypeEnum:
		return Enum(s), nil
	case DataTypeVec3:
		return parseVec3(s)
	case DataTypeActor:
		if s == "" {
			return ActorRef(uuid.Nil), nil
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", t, s, err)
		}
		return ActorRef(id), nil
	case DataTypeArray:
		if s == "" || s == "[]" {
			return Array{}, nil
		}
		return nil, fmt.Errorf("parse %s %q: arrays have no text form", t, s)
	}
	return nil, fmt.Errorf("parse %q: unknown data type", s)
}

func parseVec3(s string) (Value, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) != 3 {
		return nil, fmt.Errorf("parse VEC3 %q: want 3 components", s)
	}

	var v mgl64.Vec3
	for i, f := range fields {
		c, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parse VEC3 %q: %w", s, err)
		}
		v[i] = c
	}
	return Vec3(v), nil
}

// Convert приводит значение к типу t.
// Числа, bool и строки взаимно конвертируются; VEC3, ACTOR и ARRAY - только через строку или в себя.
func Convert(v Value, t DataType) (Value, error) {
	if v == nil {
		return nil, fmt.Errorf("convert nil value to %s", t)
	}
	if v.Type() == t {
		return v, nil
	}

	switch t {
	case DataTypeString:
		return String(v.String()), nil
	case DataTypeEnum:
		return Enum(v.String()), nil
	}

	switch src := v.(type) {
	case String, Enum:
		return ParseValue(t, src.String())
	case Bool:
		n := int64(0)
		if src {
			n = 1
		}
		return fromInt(n, t)
	case Int:
		return fromInt(int64(src), t)
	case UInt:
		return fromUint(uint64(src), t)
	case Float:
		return fromFloat(float64(src), t)
	case Double:
		return fromFloat(float64(src), t)
	}
	return nil, fmt.Errorf("cannot convert %s to %s", v.Type(), t)
}

func fromInt(n int64, t DataType) (Value, error) {
	switch t {
	case DataTypeBool:
		return Bool(n != 0), nil
	case DataTypeInt:
		return Int(n), nil
	case DataTypeUInt:
		if n < 0 {
			return nil, fmt.Errorf("cannot convert negative %d to %s", n, t)
		}
		return UInt(uint64(n)), nil
	case DataTypeFloat:
		return Float(float32(n)), nil
	case DataTypeDouble:
		return Double(float64(n)), nil
	}
	return nil, fmt.Errorf("cannot convert INT to %s", t)
}

func fromUint(n uint64, t DataType) (Value, error) {
	switch t {
	case DataTypeBool:
		return Bool(n != 0), nil
	case DataTypeInt:
		return Int(int64(n)), nil
	case DataTypeUInt:
		return UInt(n), nil
	case DataTypeFloat:
		return Float(float32(n)), nil
	case DataTypeDouble:
		return Double(float64(n)), nil
	}
	return nil, fmt.Errorf("cannot convert UINT to %s", t)
}

func fromFloat(f float64, t DataType) (Value, error) {
	switch t {
	case DataTypeBool:
		return Bool(f != 0), nil
	case DataTypeInt:
		return Int(int64(f)), nil
	case DataTypeUInt:
		if f < 0 {
			return nil, fmt.Errorf("cannot convert negative %g to %s", f, t)
		}
		return UInt(uint64(f)), nil
	case DataTypeFloat:
		return Float(float32(f)), nil
	case DataTypeDouble:
		return Double(f), nil
	}
	return nil, fmt.Errorf("cannot convert floating point to %s", t)
}

// Float64 возвращает числовое значение как float64.
func Float64(v Value) (float64, bool) {
	switch n := v.(type) {
	case Bool:
		if n {
			return 1, true
		}
		return 0, true
	case Int:
		return float64(n), true
	case UInt:
		return float64(n), true
	case Float:
		return float64(n), true
	case Double:
		return float64(n), true
	}
	return 0, false
}

// Uint64 возвращает значение как беззнаковое целое. Строки разбираются.
func Uint64(v Value) (uint64, bool) {
	c, err := Convert(v, DataTypeUInt)
	if err != nil {
		return 0, false
	}
	return uint64(c.(UInt)), true
}

// Equal сравнивает значения с учётом типа.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}

	if aa, ok := a.(Array); ok {
		bb := b.(Array)
		if len(aa.Items) != len(bb.Items) {
			return false
		}
		for i := range aa.Items {
			if !Equal(aa.Items[i], bb.Items[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
