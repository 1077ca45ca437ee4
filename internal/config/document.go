package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document - файл конфигурации маппингов шлюза.
type Document struct {
	Messages     []MessageDoc     `yaml:"messages,omitempty" json:"messages,omitempty" jsonschema:"description=Custom message types of the simulation"`
	Objects      []ObjectDoc      `yaml:"objects,omitempty" json:"objects,omitempty" jsonschema:"description=Object class to actor type mappings"`
	Interactions []InteractionDoc `yaml:"interactions,omitempty" json:"interactions,omitempty" jsonschema:"description=Interaction class to message type mappings"`
	DDM          *DDMDoc          `yaml:"ddm,omitempty" json:"ddm,omitempty"`
}

// MessageDoc объявляет пользовательский тип сообщения.
type MessageDoc struct {
	Type   string            `yaml:"type" json:"type" jsonschema:"required"`
	Params []MessageParamDoc `yaml:"params,omitempty" json:"params,omitempty"`
}

type MessageParamDoc struct {
	Name    string `yaml:"name" json:"name" jsonschema:"required"`
	Type    string `yaml:"type" json:"type" jsonschema:"required,enum=bool,enum=int,enum=uint,enum=float,enum=double,enum=string,enum=enum,enum=vec3,enum=actor,enum=array"`
	Default string `yaml:"default,omitempty" json:"default,omitempty"`
}

// ObjectDoc описывает маппинг класса объекта на тип актора.
type ObjectDoc struct {
	Name                string     `yaml:"name,omitempty" json:"name,omitempty"`
	ActorType           string     `yaml:"actorType" json:"actorType" jsonschema:"required,description=Category.Name of the actor type"`
	Class               string     `yaml:"class" json:"class" jsonschema:"required,description=Fully qualified object class name"`
	EntityType          string     `yaml:"entityType,omitempty" json:"entityType,omitempty" jsonschema:"pattern=^\\d+(\\.\\d+){6}$,description=DIS entity type discriminator; zero fields are wildcards"`
	EntityIDAttribute   string     `yaml:"entityIdAttribute,omitempty" json:"entityIdAttribute,omitempty"`
	EntityTypeAttribute string     `yaml:"entityTypeAttribute,omitempty" json:"entityTypeAttribute,omitempty"`
	Direction           string     `yaml:"direction,omitempty" json:"direction,omitempty" jsonschema:"enum=LOCAL_AND_REMOTE,enum=LOCAL_ONLY,enum=REMOTE_ONLY"`
	Calculator          string     `yaml:"ddmCalculator,omitempty" json:"ddmCalculator,omitempty"`
	Fields              []FieldDoc `yaml:"fields" json:"fields"`
}

// InteractionDoc описывает маппинг класса взаимодействия на тип сообщения.
type InteractionDoc struct {
	Name        string     `yaml:"name,omitempty" json:"name,omitempty"`
	Message     string     `yaml:"message" json:"message" jsonschema:"required"`
	Interaction string     `yaml:"interaction" json:"interaction" jsonschema:"required"`
	Direction   string     `yaml:"direction,omitempty" json:"direction,omitempty" jsonschema:"enum=LOCAL_AND_REMOTE,enum=LOCAL_ONLY,enum=REMOTE_ONLY"`
	Calculator  string     `yaml:"ddmCalculator,omitempty" json:"ddmCalculator,omitempty"`
	Fields      []FieldDoc `yaml:"fields" json:"fields"`
}

// FieldDoc - одно поле на проводе и его внутренние параметры.
type FieldDoc struct {
	HLA            string     `yaml:"hla,omitempty" json:"hla,omitempty" jsonschema:"description=Attribute or parameter name; MAPPING_NAME and ENTITY_TYPE_ID are special"`
	Type           string     `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"description=Wire type name known to the translators"`
	RequiredForHLA bool       `yaml:"requiredForHla,omitempty" json:"requiredForHla,omitempty"`
	Array          bool       `yaml:"array,omitempty" json:"array,omitempty"`
	Params         []ParamDoc `yaml:"params" json:"params" jsonschema:"required,minItems=1"`
}

type ParamDoc struct {
	Name          string    `yaml:"name" json:"name" jsonschema:"required"`
	Type          string    `yaml:"type" json:"type" jsonschema:"required,enum=bool,enum=int,enum=uint,enum=float,enum=double,enum=string,enum=enum,enum=vec3,enum=actor,enum=array"`
	Default       string    `yaml:"default,omitempty" json:"default,omitempty"`
	Required      bool      `yaml:"required,omitempty" json:"required,omitempty"`
	AllowUnmapped bool      `yaml:"allowUnmapped,omitempty" json:"allowUnmapped,omitempty"`
	Enums         []EnumDoc `yaml:"enums,omitempty" json:"enums,omitempty"`
}

type EnumDoc struct {
	HLA  string `yaml:"hla" json:"hla" jsonschema:"required"`
	Game string `yaml:"game" json:"game" jsonschema:"required"`
}

// DDMDoc - настройки управления распределением данных.
type DDMDoc struct {
	Enabled     bool            `yaml:"enabled" json:"enabled"`
	Calculators []CalculatorDoc `yaml:"calculators,omitempty" json:"calculators,omitempty"`
}

// CalculatorDoc описывает калькулятор регионов.
type CalculatorDoc struct {
	Name  string `yaml:"name" json:"name" jsonschema:"required"`
	Usage string `yaml:"usage,omitempty" json:"usage,omitempty" jsonschema:"enum=subscription,enum=publication"`
	Kind  string `yaml:"kind" json:"kind" jsonschema:"required,enum=geographic,enum=appspace"`

	// appspace и geographic
	Spaces   uint32 `yaml:"spaces,omitempty" json:"spaces,omitempty"`
	AppSpace uint32 `yaml:"appSpace,omitempty" json:"appSpace,omitempty"`

	// geographic
	WorldMin [2]float64 `yaml:"worldMin,omitempty" json:"worldMin,omitempty"`
	WorldMax [2]float64 `yaml:"worldMax,omitempty" json:"worldMax,omitempty"`
	Cell     float64    `yaml:"cell,omitempty" json:"cell,omitempty"`
	Radius   float64    `yaml:"radius,omitempty" json:"radius,omitempty"`
}

// LoadDocument reads a mapping document from a YAML file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument разбирает YAML. Неизвестные поля считаются ошибкой.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing mapping YAML: %w", err)
	}
	return &doc, nil
}

// Marshal сериализует документ обратно в YAML (хранение в каталоге).
func (d *Document) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding mapping YAML: %w", err)
	}
	return data, nil
}
