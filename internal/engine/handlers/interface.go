package handlers

import (
	"encoding/json"

	"github.com/google/uuid"

	"hla-gateway/internal/domain"
)

// ActorFinder описывает любую структуру, которая может находить актора по ID.
// engine.ActorStore неявно реализует этот интерфейс.
type ActorFinder interface {
	FindActor(id uuid.UUID) (*domain.Actor, bool)
}

// Context передает хендлеру состояние сессии только для чтения.
type Context struct {
	Actors   ActorFinder
	Messages *domain.MessageCatalog
}

// Result - возвращает результат выполнения команды.
// Хендлер НЕ публикует сообщения сам: сессия отправляет Messages в шлюз.
type Result struct {
	Msg      string // Текст лога
	MsgType  string // Тип лога (OBJECT, INTERACTION, FEDERATION)
	Messages []*domain.Message
}

// HandlerFunc - это контракт для любой команды наблюдателя (INTEREST, ACTOR, ...).
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, error)

// EmptyResult - вспомогательная функция для пустого успешного ответа
func EmptyResult() Result {
	return Result{}
}
