package mapping

import (
	"fmt"

	"hla-gateway/internal/domain"
)

// EnumPair - одна строка таблицы перечислений: значение на проводе и внутреннее значение.
type EnumPair struct {
	HLA  string
	Game string
}

// ParameterDefinition - описание внутреннего параметра, заполняемого из поля на проводе.
type ParameterDefinition struct {
	GameName        string
	GameType        domain.DataType
	Default         string
	RequiredForGame bool
	// AllowUnmapped разрешает значению по умолчанию отсутствовать в таблице перечислений.
	AllowUnmapped bool

	enums []EnumPair
}

// NewParameterDefinition создаёт определение с таблицей перечислений.
func NewParameterDefinition(name string, t domain.DataType, def string, required bool, enums ...EnumPair) ParameterDefinition {
	return ParameterDefinition{
		GameName:        name,
		GameType:        t,
		Default:         def,
		RequiredForGame: required,
		enums:           append([]EnumPair(nil), enums...),
	}
}

// EnumPairs возвращает таблицу перечислений в порядке объявления.
func (p ParameterDefinition) EnumPairs() []EnumPair {
	return append([]EnumPair(nil), p.enums...)
}

// HasEnumTable сообщает, задана ли таблица перечислений.
func (p ParameterDefinition) HasEnumTable() bool { return len(p.enums) > 0 }

// GameEnum переводит значение с провода во внутреннее. Первая подходящая строка побеждает.
func (p ParameterDefinition) GameEnum(hla string) (string, bool) {
	for _, e := range p.enums {
		if e.HLA == hla {
			return e.Game, true
		}
	}
	return "", false
}

// HLAEnum переводит внутреннее значение в значение на проводе.
func (p ParameterDefinition) HLAEnum(game string) (string, bool) {
	for _, e := range p.enums {
		if e.Game == game {
			return e.HLA, true
		}
	}
	return "", false
}

// DefaultValue разбирает значение по умолчанию. ok=false, если оно не задано.
func (p ParameterDefinition) DefaultValue() (domain.Value, bool, error) {
	if p.Default == "" {
		return nil, false, nil
	}
	v, err := domain.ParseValue(p.GameType, p.Default)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Validate проверяет инварианты определения.
func (p ParameterDefinition) Validate() error {
	if p.GameName == "" {
		return fmt.Errorf("parameter definition without game name")
	}
	if p.GameType == domain.DataTypeUnknown {
		return fmt.Errorf("parameter %q: unknown data type", p.GameName)
	}
	if p.Default != "" {
		if _, err := domain.ParseValue(p.GameType, p.Default); err != nil {
			return fmt.Errorf("parameter %q: invalid default: %w", p.GameName, err)
		}
	}
	if p.HasEnumTable() && !p.AllowUnmapped {
		if _, ok := p.HLAEnum(p.Default); !ok {
			return fmt.Errorf("parameter %q: default %q is not in the enumeration table", p.GameName, p.Default)
		}
	}
	return nil
}
