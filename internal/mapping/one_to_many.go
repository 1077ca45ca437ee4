package mapping

import (
	"fmt"
	"strings"
)

// Shape - форма полезной нагрузки поля на проводе.
type Shape uint8

const (
	// ShapeScalar - одно значение, которое получает каждый параметр списка.
	ShapeScalar Shape = iota
	// ShapeArray - последовательность элементов фиксированной длины, ровно один параметр.
	ShapeArray
	// ShapeGroup - составное значение, i-й компонент идёт в i-й параметр.
	ShapeGroup
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "SCALAR"
	case ShapeArray:
		return "ARRAY"
	case ShapeGroup:
		return "GROUP"
	}
	return "UNKNOWN"
}

// OneToManyMapping связывает одно поле на проводе (атрибут или параметр
// взаимодействия) с одним или несколькими внутренними параметрами.
type OneToManyMapping struct {
	HLAName        string
	HLAType        AttributeType
	RequiredForHLA bool
	// Special - псевдо-поле без аналога на проводе (MAPPING_NAME, ENTITY_TYPE_ID).
	Special bool
	Array   bool
	Params  []ParameterDefinition
}

// Shape выводит форму полезной нагрузки из флага массива и возможностей типа.
func (m *OneToManyMapping) Shape() Shape {
	if m.Array {
		return ShapeArray
	}
	if len(m.Params) > 1 && m.HLAType.SupportedParameters > 1 {
		return ShapeGroup
	}
	return ShapeScalar
}

// IsDefaulted сообщает, что поле не имеет аналога на проводе и служит только
// для подстановки значений по умолчанию.
func (m *OneToManyMapping) IsDefaulted() bool {
	if m.HLAName != "" || len(m.Params) == 0 {
		return false
	}
	for _, p := range m.Params {
		if p.Default == "" {
			return false
		}
	}
	return true
}

// Describe возвращает описание для журналов ошибок маппинга.
func (m *OneToManyMapping) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "HLA name %q type %q", m.HLAName, m.HLAType.Name)
	for _, p := range m.Params {
		fmt.Fprintf(&b, "; game name %q type %q", p.GameName, p.GameType)
	}
	return b.String()
}

// Validate проверяет инварианты записи.
func (m *OneToManyMapping) Validate() error {
	if m.HLAName == "" && !m.IsDefaulted() {
		return fmt.Errorf("mapping without HLA name must provide defaults for every parameter")
	}
	if m.Special && !IsSpecialName(m.HLAName) {
		return fmt.Errorf("mapping %q is marked special but is not a special name", m.HLAName)
	}
	if !m.Special && m.HLAName != "" && m.HLAType.IsUnknown() {
		return fmt.Errorf("mapping %q: unknown HLA type", m.HLAName)
	}
	if len(m.Params) == 0 {
		return fmt.Errorf("mapping %q has no parameter definitions", m.HLAName)
	}

	switch m.Shape() {
	case ShapeArray:
		if len(m.Params) != 1 {
			return fmt.Errorf("array mapping %q must have exactly one parameter definition", m.HLAName)
		}
		if m.HLAType.EncodedLength <= 0 {
			return fmt.Errorf("array mapping %q needs a fixed-size element type", m.HLAName)
		}
	case ShapeGroup:
		if len(m.Params) > m.HLAType.SupportedParameters {
			return fmt.Errorf("mapping %q: type %s supports %d parameters, got %d",
				m.HLAName, m.HLAType.Name, m.HLAType.SupportedParameters, len(m.Params))
		}
	case ShapeScalar:
	}

	for _, p := range m.Params {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("mapping %q: %w", m.HLAName, err)
		}
	}
	return nil
}
