package mapping

import (
	"fmt"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
)

// ObjectToActor связывает тип актора с классом объекта HLA.
//
// Маппинг неизменяем после регистрации. Хэндлы RTI хранит компонент шлюза.
type ObjectToActor struct {
	ActorType       domain.ActorType
	ObjectClassName string
	// EntityType - дискриминатор для классов платформ, nil если не задан.
	EntityType  *types.EntityType
	MappingName string

	EntityIDAttributeName string
	// EntityTypeAttributeName переопределяет атрибут с типом сущности.
	EntityTypeAttributeName string

	LocalOrRemote     LocalOrRemote
	Mappings          []OneToManyMapping
	DDMCalculatorName string
}

// Name возвращает имя маппинга или, если оно не задано, полное имя типа актора.
func (o *ObjectToActor) Name() string {
	if o.MappingName != "" {
		return o.MappingName
	}
	return o.ActorType.FullName()
}

// EffectiveEntityTypeAttributeName возвращает имя атрибута, несущего тип сущности.
func (o *ObjectToActor) EffectiveEntityTypeAttributeName() string {
	if o.EntityTypeAttributeName != "" {
		return o.EntityTypeAttributeName
	}
	return DefaultEntityTypeAttributeName
}

// SameKey сообщает, совпадают ли класс и дискриминатор.
func (o *ObjectToActor) SameKey(className string, et *types.EntityType) bool {
	if o.ObjectClassName != className {
		return false
	}
	if o.EntityType == nil || et == nil {
		return o.EntityType == nil && et == nil
	}
	return *o.EntityType == *et
}

// AttributeNames возвращает имена атрибутов, которые маппинг читает или пишет на проводе.
// Специальные и синтетические поля не включаются.
func (o *ObjectToActor) AttributeNames() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	add(o.EntityIDAttributeName)
	if o.EntityType != nil {
		add(o.EffectiveEntityTypeAttributeName())
	}
	for i := range o.Mappings {
		m := &o.Mappings[i]
		if m.Special {
			continue
		}
		add(m.HLAName)
	}
	return out
}

// Validate проверяет маппинг целиком.
func (o *ObjectToActor) Validate() error {
	if o.ActorType.IsZero() {
		return fmt.Errorf("object mapping %q: empty actor type", o.ObjectClassName)
	}
	if o.ObjectClassName == "" {
		return fmt.Errorf("object mapping for %s: empty object class name", o.ActorType)
	}
	if _, ok := directionTypeToString[o.LocalOrRemote]; !ok {
		return fmt.Errorf("object mapping %s: invalid direction %d", o.Name(), o.LocalOrRemote)
	}
	for i := range o.Mappings {
		if err := o.Mappings[i].Validate(); err != nil {
			return fmt.Errorf("object mapping %s: %w", o.Name(), err)
		}
	}
	return nil
}

// InteractionToMessage связывает тип сообщения с классом взаимодействия HLA.
type InteractionToMessage struct {
	MessageType       domain.MessageType
	InteractionName   string
	MappingName       string
	LocalOrRemote     LocalOrRemote
	Mappings          []OneToManyMapping
	DDMCalculatorName string
}

// Name возвращает имя маппинга или имя типа сообщения.
func (i *InteractionToMessage) Name() string {
	if i.MappingName != "" {
		return i.MappingName
	}
	return string(i.MessageType)
}

// ParameterNames возвращает имена параметров взаимодействия на проводе.
func (i *InteractionToMessage) ParameterNames() []string {
	seen := make(map[string]bool)
	var out []string
	for k := range i.Mappings {
		m := &i.Mappings[k]
		if m.Special || m.HLAName == "" || seen[m.HLAName] {
			continue
		}
		seen[m.HLAName] = true
		out = append(out, m.HLAName)
	}
	return out
}

// Validate проверяет маппинг целиком.
func (i *InteractionToMessage) Validate() error {
	if i.MessageType == "" {
		return fmt.Errorf("interaction mapping %q: empty message type", i.InteractionName)
	}
	if i.InteractionName == "" {
		return fmt.Errorf("interaction mapping for %s: empty interaction class name", i.MessageType)
	}
	if _, ok := directionTypeToString[i.LocalOrRemote]; !ok {
		return fmt.Errorf("interaction mapping %s: invalid direction %d", i.Name(), i.LocalOrRemote)
	}
	for k := range i.Mappings {
		m := &i.Mappings[k]
		if m.Special && m.HLAName != MappingNameParameter {
			return fmt.Errorf("interaction mapping %s: %q cannot be special", i.Name(), m.HLAName)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("interaction mapping %s: %w", i.Name(), err)
		}
	}
	return nil
}
