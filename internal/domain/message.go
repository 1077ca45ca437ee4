package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MessageType - тип внутреннего сообщения. Набор открыт: пользовательские
// сообщения объявляются в MessageCatalog.
type MessageType string

// Системные типы сообщений.
const (
	MessageActorCreated    MessageType = "INFO_ACTOR_CREATED"
	MessageActorUpdated    MessageType = "INFO_ACTOR_UPDATED"
	MessageActorDeleted    MessageType = "INFO_ACTOR_DELETED"
	MessageTick            MessageType = "TICK_LOCAL"
	MessageMapUnloaded     MessageType = "INFO_MAP_UNLOADED"
	MessageInterestChanged MessageType = "INFO_INTEREST_CHANGED"
)

// ParseMessageType нормализует имя типа сообщения.
func ParseMessageType(s string) MessageType {
	return MessageType(strings.ToUpper(strings.TrimSpace(s)))
}

func (t MessageType) String() string { return string(t) }

// IsActorMessage сообщает, описывает ли тип состояние актора.
func (t MessageType) IsActorMessage() bool {
	switch t {
	case MessageActorCreated, MessageActorUpdated, MessageActorDeleted:
		return true
	}
	return false
}

// Param - именованный параметр сообщения.
type Param struct {
	Name  string
	Value Value
}

// Message - внутреннее сообщение симуляции.
//
// Сообщения об акторах имеют динамическую форму: параметры создаются по мере
// записи. Остальные сообщения создаются из каталога и принимают только
// объявленные параметры.
type Message struct {
	Type           MessageType
	AboutActorID   uuid.UUID
	SendingActorID uuid.UUID
	ActorType      ActorType
	Name           string
	// Source - имя маппинга или подсистемы, создавшей сообщение (для инспекции).
	Source string

	dynamic bool
	params  []Param
	index   map[string]int
	types   map[string]DataType
}

// NewActorMessage создаёт сообщение об акторе с динамическим набором параметров.
func NewActorMessage(t MessageType, about uuid.UUID, actorType ActorType) *Message {
	return &Message{
		Type:         t,
		AboutActorID: about,
		ActorType:    actorType,
		dynamic:      true,
		index:        make(map[string]int),
	}
}

// NewActorUpdateMessage собирает полное обновление из свойств актора.
func NewActorUpdateMessage(a *Actor) *Message {
	msg := NewActorMessage(MessageActorUpdated, a.ID, a.Type)
	msg.Name = a.Name
	for _, name := range a.PropertyNames() {
		v, _ := a.GetProperty(name)
		_ = msg.SetParam(name, v)
	}
	return msg
}

// NewDynamicMessage создаёт сообщение произвольного типа с динамическим набором
// параметров (например, INFO_INTEREST_CHANGED от клиента).
func NewDynamicMessage(t MessageType) *Message {
	return &Message{Type: t, dynamic: true, index: make(map[string]int)}
}

// NewSystemMessage создаёт сообщение без параметров (тик, выгрузка карты).
func NewSystemMessage(t MessageType) *Message {
	return &Message{Type: t, index: make(map[string]int)}
}

// IsDynamic сообщает, создаются ли параметры по требованию.
func (m *Message) IsDynamic() bool { return m.dynamic }

// Param возвращает значение параметра.
func (m *Message) Param(name string) (Value, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.params[i].Value, m.params[i].Value != nil
}

// HasParam сообщает, существует ли параметр (в том числе без значения).
func (m *Message) HasParam(name string) bool {
	_, ok := m.index[name]
	return ok
}

// ParamType возвращает объявленный тип параметра.
func (m *Message) ParamType(name string) (DataType, bool) {
	if t, ok := m.types[name]; ok {
		return t, true
	}
	if v, ok := m.Param(name); ok {
		return v.Type(), true
	}
	return DataTypeUnknown, false
}

// SetParam записывает значение. Для сообщений фиксированной формы имя и тип
// должны совпадать с объявлением.
func (m *Message) SetParam(name string, v Value) error {
	if v == nil {
		return fmt.Errorf("message %s: nil value for parameter %q", m.Type, name)
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}

	i, ok := m.index[name]
	if !ok {
		if !m.dynamic {
			return fmt.Errorf("message %s has no parameter named %q", m.Type, name)
		}
		m.index[name] = len(m.params)
		m.params = append(m.params, Param{Name: name, Value: v})
		return nil
	}

	if declared, ok := m.types[name]; ok && declared != v.Type() {
		return fmt.Errorf("message %s parameter %q is %s, got %s", m.Type, name, declared, v.Type())
	}
	m.params[i].Value = v
	return nil
}

// Params возвращает параметры со значениями в порядке добавления.
func (m *Message) Params() []Param {
	out := make([]Param, 0, len(m.params))
	for _, p := range m.params {
		if p.Value != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m *Message) GetProperty(name string) (Value, bool) { return m.Param(name) }

func (m *Message) SetProperty(name string, v Value) error { return m.SetParam(name, v) }

func (m *Message) declare(name string, t DataType) {
	if m.types == nil {
		m.types = make(map[string]DataType)
	}
	m.index[name] = len(m.params)
	m.params = append(m.params, Param{Name: name})
	m.types[name] = t
}
