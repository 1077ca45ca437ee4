package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ActorType - тип актора: категория и имя.
type ActorType struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// FullName возвращает "Category.Name".
func (t ActorType) FullName() string {
	if t.Category == "" {
		return t.Name
	}
	return t.Category + "." + t.Name
}

func (t ActorType) String() string { return t.FullName() }

// IsZero сообщает, что тип не задан.
func (t ActorType) IsZero() bool { return t.Category == "" && t.Name == "" }

// ParseActorType разбирает "Category.Name"; категорией считается всё до последней точки.
func ParseActorType(s string) (ActorType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ActorType{}, fmt.Errorf("empty actor type")
	}
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return ActorType{Name: s}, nil
	}
	if idx == len(s)-1 {
		return ActorType{}, fmt.Errorf("actor type %q: empty name", s)
	}
	return ActorType{Category: s[:idx], Name: s[idx+1:]}, nil
}

// PropertyContainer - узкая возможность чтения и записи свойств по имени.
// Этого достаточно движку маппингов для работы с акторами и сообщениями.
type PropertyContainer interface {
	GetProperty(name string) (Value, bool)
	SetProperty(name string, v Value) error
}

// Actor - внутренний актор симуляции.
type Actor struct {
	ID     uuid.UUID
	Type   ActorType
	Name   string
	Remote bool

	props map[string]Value
}

// NewActor создаёт актора с новым уникальным идентификатором.
func NewActor(t ActorType, name string) *Actor {
	return &Actor{
		ID:    uuid.New(),
		Type:  t,
		Name:  name,
		props: make(map[string]Value),
	}
}

func (a *Actor) GetProperty(name string) (Value, bool) {
	v, ok := a.props[name]
	return v, ok
}

func (a *Actor) SetProperty(name string, v Value) error {
	if name == "" {
		return fmt.Errorf("actor %s: empty property name", a.ID)
	}
	if v == nil {
		return fmt.Errorf("actor %s: nil value for property %q", a.ID, name)
	}
	if a.props == nil {
		a.props = make(map[string]Value)
	}
	a.props[name] = v
	return nil
}

// PropertyNames возвращает имена свойств в алфавитном порядке.
func (a *Actor) PropertyNames() []string {
	names := make([]string, 0, len(a.props))
	for name := range a.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyMessage переносит параметры сообщения об акторе в свойства.
func (a *Actor) ApplyMessage(msg *Message) {
	if msg.Name != "" {
		a.Name = msg.Name
	}
	if a.props == nil {
		a.props = make(map[string]Value)
	}
	for _, p := range msg.Params() {
		a.props[p.Name] = p.Value
	}
}
