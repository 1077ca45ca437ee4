package domain

import (
	"fmt"
	"sort"
)

// ParamSpec - объявление параметра пользовательского сообщения.
type ParamSpec struct {
	Name    string
	Type    DataType
	Default Value
}

// MessageCatalog хранит формы пользовательских сообщений.
// Аналог фабрики сообщений: входящие взаимодействия создают сообщения только через каталог.
type MessageCatalog struct {
	specs map[MessageType][]ParamSpec
}

func NewMessageCatalog() *MessageCatalog {
	return &MessageCatalog{specs: make(map[MessageType][]ParamSpec)}
}

// Register объявляет тип сообщения. Повторное объявление и системные типы запрещены.
func (c *MessageCatalog) Register(t MessageType, params ...ParamSpec) error {
	if t == "" {
		return fmt.Errorf("empty message type")
	}
	if t.IsActorMessage() || t == MessageTick || t == MessageMapUnloaded || t == MessageInterestChanged {
		return fmt.Errorf("message type %s is reserved", t)
	}
	if _, exists := c.specs[t]; exists {
		return fmt.Errorf("message type %s already registered", t)
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("message type %s: empty parameter name", t)
		}
		if seen[p.Name] {
			return fmt.Errorf("message type %s: duplicate parameter %q", t, p.Name)
		}
		if p.Type == DataTypeUnknown {
			return fmt.Errorf("message type %s: parameter %q has unknown type", t, p.Name)
		}
		seen[p.Name] = true
	}

	c.specs[t] = append([]ParamSpec(nil), params...)
	return nil
}

// Has сообщает, объявлен ли тип.
func (c *MessageCatalog) Has(t MessageType) bool {
	_, ok := c.specs[t]
	return ok
}

// Spec возвращает объявление типа.
func (c *MessageCatalog) Spec(t MessageType) ([]ParamSpec, bool) {
	p, ok := c.specs[t]
	return p, ok
}

// Types возвращает объявленные типы в алфавитном порядке.
func (c *MessageCatalog) Types() []MessageType {
	out := make([]MessageType, 0, len(c.specs))
	for t := range c.specs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Create создаёт сообщение объявленной формы. Параметры со значением по
// умолчанию сразу заполнены.
func (c *MessageCatalog) Create(t MessageType) (*Message, error) {
	params, ok := c.specs[t]
	if !ok {
		return nil, fmt.Errorf("unknown message type %s", t)
	}

	msg := &Message{Type: t, index: make(map[string]int)}
	for _, p := range params {
		msg.declare(p.Name, p.Type)
		if p.Default != nil {
			msg.params[len(msg.params)-1].Value = p.Default
		}
	}
	return msg, nil
}
