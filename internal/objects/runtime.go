package objects

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/rti"
)

// ErrConflict возвращается при нарушении однозначности соответствия хэндл - актор.
var ErrConflict = errors.New("runtime mapping conflict")

// Entry - живое соответствие экземпляра объекта федерации актору.
type Entry struct {
	Handle    rti.ObjectInstanceHandle
	ActorID   uuid.UUID
	ClassName string
	Name      string
	// Mapping равен nil, пока экземпляр не разрешён (Pending).
	Mapping  *mapping.ObjectToActor
	EntityID types.EntityIdentifier
	Pending  bool
	Remote   bool
}

// RuntimeMappingInfo хранит соответствия экземпляров объектов федерации и акторов.
//
// Хэндл указывает не более чем на одного актора, актор встречается не более
// одного раза. Структура не синхронизирована: ею владеет один цикл сессии.
type RuntimeMappingInfo struct {
	byHandle map[rti.ObjectInstanceHandle]*Entry
	byActor  map[uuid.UUID]rti.ObjectInstanceHandle

	nameToActor map[string]uuid.UUID
	actorToName map[uuid.UUID]string

	idToActor map[types.EntityIdentifier]uuid.UUID
	actorToID map[uuid.UUID]types.EntityIdentifier

	reserved map[string]uuid.UUID
}

func NewRuntimeMappingInfo() *RuntimeMappingInfo {
	r := &RuntimeMappingInfo{}
	r.Clear()
	return r
}

// Clear удаляет все записи.
func (r *RuntimeMappingInfo) Clear() {
	r.byHandle = make(map[rti.ObjectInstanceHandle]*Entry)
	r.byActor = make(map[uuid.UUID]rti.ObjectInstanceHandle)
	r.nameToActor = make(map[string]uuid.UUID)
	r.actorToName = make(map[uuid.UUID]string)
	r.idToActor = make(map[types.EntityIdentifier]uuid.UUID)
	r.actorToID = make(map[uuid.UUID]types.EntityIdentifier)
	r.reserved = make(map[string]uuid.UUID)
}

// AddPending запоминает обнаруженный, но ещё не разрешённый удалённый экземпляр.
func (r *RuntimeMappingInfo) AddPending(h rti.ObjectInstanceHandle, className, name string, actorID uuid.UUID) error {
	return r.Put(&Entry{
		Handle:    h,
		ActorID:   actorID,
		ClassName: className,
		Name:      name,
		Pending:   true,
		Remote:    true,
	})
}

// Resolve привязывает ожидающий экземпляр к найденному отображению.
func (r *RuntimeMappingInfo) Resolve(h rti.ObjectInstanceHandle, m *mapping.ObjectToActor) (*Entry, error) {
	e, ok := r.byHandle[h]
	if !ok {
		return nil, fmt.Errorf("%w: unknown object instance %d", ErrConflict, h)
	}
	if !e.Pending {
		return nil, fmt.Errorf("%w: object instance %d is already resolved", ErrConflict, h)
	}
	e.Mapping = m
	e.Pending = false
	return e, nil
}

// Put добавляет запись. Повторное использование хэндла или актора - ошибка.
func (r *RuntimeMappingInfo) Put(e *Entry) error {
	if _, ok := r.byHandle[e.Handle]; ok {
		return fmt.Errorf("%w: object instance %d is already mapped", ErrConflict, e.Handle)
	}
	if h, ok := r.byActor[e.ActorID]; ok {
		return fmt.Errorf("%w: actor %s is already mapped to object instance %d", ErrConflict, e.ActorID, h)
	}
	r.byHandle[e.Handle] = e
	r.byActor[e.ActorID] = e.Handle
	if e.Name != "" {
		r.nameToActor[e.Name] = e.ActorID
		r.actorToName[e.ActorID] = e.Name
	}
	return nil
}

func (r *RuntimeMappingInfo) ByHandle(h rti.ObjectInstanceHandle) (*Entry, bool) {
	e, ok := r.byHandle[h]
	return e, ok
}

func (r *RuntimeMappingInfo) ByActor(id uuid.UUID) (*Entry, bool) {
	h, ok := r.byActor[id]
	if !ok {
		return nil, false
	}
	return r.byHandle[h], true
}

// RemoveByHandle удаляет запись и все связанные с актором соответствия.
func (r *RuntimeMappingInfo) RemoveByHandle(h rti.ObjectInstanceHandle) (*Entry, bool) {
	e, ok := r.byHandle[h]
	if !ok {
		return nil, false
	}
	delete(r.byHandle, h)
	delete(r.byActor, e.ActorID)
	r.forgetActor(e.ActorID)
	return e, true
}

// RemoveByActor удаляет запись актора. Имя и EntityIdentifier забываются,
// даже если хэндла ещё нет.
func (r *RuntimeMappingInfo) RemoveByActor(id uuid.UUID) (*Entry, bool) {
	h, ok := r.byActor[id]
	if !ok {
		r.forgetActor(id)
		return nil, false
	}
	return r.RemoveByHandle(h)
}

func (r *RuntimeMappingInfo) forgetActor(id uuid.UUID) {
	if name, ok := r.actorToName[id]; ok {
		delete(r.nameToActor, name)
		delete(r.actorToName, id)
	}
	if eid, ok := r.actorToID[id]; ok {
		delete(r.idToActor, eid)
		delete(r.actorToID, id)
	}
	for name, actor := range r.reserved {
		if actor == id {
			delete(r.reserved, name)
		}
	}
}

// PutName связывает имя экземпляра в федерации с актором.
func (r *RuntimeMappingInfo) PutName(name string, id uuid.UUID) error {
	if other, ok := r.nameToActor[name]; ok && other != id {
		return fmt.Errorf("%w: name %q belongs to actor %s", ErrConflict, name, other)
	}
	if old, ok := r.actorToName[id]; ok && old != name {
		delete(r.nameToActor, old)
	}
	r.nameToActor[name] = id
	r.actorToName[id] = name
	return nil
}

func (r *RuntimeMappingInfo) ActorIDForName(name string) (uuid.UUID, bool) {
	id, ok := r.nameToActor[name]
	return id, ok
}

func (r *RuntimeMappingInfo) NameForActor(id uuid.UUID) (string, bool) {
	name, ok := r.actorToName[id]
	return name, ok
}

// PutEntityID связывает EntityIdentifier с актором.
func (r *RuntimeMappingInfo) PutEntityID(eid types.EntityIdentifier, id uuid.UUID) error {
	if eid.IsNil() {
		return fmt.Errorf("%w: nil entity identifier", ErrConflict)
	}
	if other, ok := r.idToActor[eid]; ok && other != id {
		return fmt.Errorf("%w: entity identifier %s belongs to actor %s", ErrConflict, eid, other)
	}
	if old, ok := r.actorToID[id]; ok && old != eid {
		delete(r.idToActor, old)
	}
	r.idToActor[eid] = id
	r.actorToID[id] = eid
	if h, ok := r.byActor[id]; ok {
		r.byHandle[h].EntityID = eid
	}
	return nil
}

// ActorForEntityIdentifier реализует translator.ActorResolver.
func (r *RuntimeMappingInfo) ActorForEntityIdentifier(eid types.EntityIdentifier) (uuid.UUID, bool) {
	id, ok := r.idToActor[eid]
	return id, ok
}

// EntityIdentifierForActor реализует translator.ActorResolver.
func (r *RuntimeMappingInfo) EntityIdentifierForActor(id uuid.UUID) (types.EntityIdentifier, bool) {
	eid, ok := r.actorToID[id]
	return eid, ok
}

// Reserve запоминает имя, запрошенное у RTI для актора.
func (r *RuntimeMappingInfo) Reserve(name string, id uuid.UUID) {
	r.reserved[name] = id
}

// Unreserve снимает резервирование и возвращает актора, для которого оно было запрошено.
func (r *RuntimeMappingInfo) Unreserve(name string) (uuid.UUID, bool) {
	id, ok := r.reserved[name]
	if ok {
		delete(r.reserved, name)
	}
	return id, ok
}

// IsReserving сообщает, ожидает ли актор ответа на резервирование имени.
func (r *RuntimeMappingInfo) IsReserving(id uuid.UUID) bool {
	for _, actor := range r.reserved {
		if actor == id {
			return true
		}
	}
	return false
}

// Len возвращает количество записей, включая ожидающие.
func (r *RuntimeMappingInfo) Len() int { return len(r.byHandle) }

// Entries возвращает копии записей, упорядоченные по хэндлу.
func (r *RuntimeMappingInfo) Entries() []Entry {
	out := make([]Entry, 0, len(r.byHandle))
	for _, e := range r.byHandle {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}
