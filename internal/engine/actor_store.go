package engine

import (
	"sort"

	"github.com/google/uuid"

	"hla-gateway/internal/domain"
)

// ActorStore хранит акторов симуляции: локальных, которых публикует
// сессия, и удалённых, которых создаёт шлюз.
//
// Не синхронизирован: им владеет цикл сессии.
type ActorStore struct {
	actors map[uuid.UUID]*domain.Actor
}

func NewActorStore() *ActorStore {
	return &ActorStore{actors: make(map[uuid.UUID]*domain.Actor)}
}

// FindActor реализует репозиторий акторов шлюза.
func (s *ActorStore) FindActor(id uuid.UUID) (*domain.Actor, bool) {
	a, ok := s.actors[id]
	return a, ok
}

// Add добавляет или заменяет актора.
func (s *ActorStore) Add(a *domain.Actor) {
	s.actors[a.ID] = a
}

// Remove удаляет актора.
func (s *ActorStore) Remove(id uuid.UUID) bool {
	if _, ok := s.actors[id]; !ok {
		return false
	}
	delete(s.actors, id)
	return true
}

// ApplyRemote применяет сообщение шлюза об удалённом акторе.
func (s *ActorStore) ApplyRemote(msg *domain.Message) {
	s.apply(msg, true)
}

// ApplyLocal применяет сообщение симуляции о локальном акторе.
func (s *ActorStore) ApplyLocal(msg *domain.Message) {
	s.apply(msg, false)
}

func (s *ActorStore) apply(msg *domain.Message, remote bool) {
	switch msg.Type {
	case domain.MessageActorDeleted:
		s.Remove(msg.AboutActorID)
	case domain.MessageActorCreated, domain.MessageActorUpdated:
		a, ok := s.actors[msg.AboutActorID]
		if !ok {
			a = &domain.Actor{ID: msg.AboutActorID, Type: msg.ActorType, Remote: remote}
			s.actors[a.ID] = a
		}
		if a.Type.IsZero() {
			a.Type = msg.ActorType
		}
		a.ApplyMessage(msg)
	}
}

// RemoveRemote удаляет всех удалённых акторов (выгрузка карты).
func (s *ActorStore) RemoveRemote() int {
	n := 0
	for id, a := range s.actors {
		if a.Remote {
			delete(s.actors, id)
			n++
		}
	}
	return n
}

// Len возвращает количество акторов.
func (s *ActorStore) Len() int { return len(s.actors) }

// Actors возвращает акторов, упорядоченных по идентификатору.
func (s *ActorStore) Actors() []*domain.Actor {
	out := make([]*domain.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
