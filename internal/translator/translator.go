package translator

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
)

// ActorResolver связывает идентификаторы сущностей федерации с акторами.
// Нужен для параметров типа ACTOR, передаваемых как EntityIdentifier.
type ActorResolver interface {
	ActorForEntityIdentifier(id types.EntityIdentifier) (uuid.UUID, bool)
	EntityIdentifierForActor(id uuid.UUID) (types.EntityIdentifier, bool)
}

// Env - окружение одного вызова транслятора.
type Env struct {
	Actors ActorResolver
	Log    *logrus.Entry
}

// ParameterTranslator - подключаемый кодек между сырым буфером поля на
// проводе и внутренними значениями параметров.
//
// Decode и Encode работают со срезом, выровненным по m.Params: i-й элемент
// относится к i-му определению параметра, nil означает "нет значения".
type ParameterTranslator interface {
	// Name возвращает имя транслятора для журналов.
	Name() string
	// TranslatesAttributeType сообщает, умеет ли транслятор работать с типом.
	TranslatesAttributeType(t mapping.AttributeType) bool
	// AttributeTypeForName ищет тип по имени из конфигурации.
	AttributeTypeForName(name string) (mapping.AttributeType, bool)
	// Decode разбирает буфер во внутренние значения.
	Decode(env Env, buf []byte, m *mapping.OneToManyMapping) ([]domain.Value, error)
	// Encode кодирует внутренние значения в буфер.
	Encode(env Env, values []domain.Value, m *mapping.OneToManyMapping) ([]byte, error)
}

// Registry - упорядоченный набор трансляторов. Первый подходящий побеждает.
type Registry struct {
	translators []ParameterTranslator
}

func NewRegistry(translators ...ParameterTranslator) *Registry {
	return &Registry{translators: append([]ParameterTranslator(nil), translators...)}
}

// Register добавляет транслятор в конец списка.
func (r *Registry) Register(t ParameterTranslator) {
	r.translators = append(r.translators, t)
}

// For возвращает транслятор для типа поля.
func (r *Registry) For(t mapping.AttributeType) (ParameterTranslator, bool) {
	for _, tr := range r.translators {
		if tr.TranslatesAttributeType(t) {
			return tr, true
		}
	}
	return nil, false
}

// AttributeType ищет тип поля по имени во всех трансляторах.
func (r *Registry) AttributeType(name string) (mapping.AttributeType, bool) {
	for _, tr := range r.translators {
		if t, ok := tr.AttributeTypeForName(name); ok {
			return t, true
		}
	}
	return mapping.UnknownAttributeType, false
}

// Len возвращает количество трансляторов.
func (r *Registry) Len() int { return len(r.translators) }
