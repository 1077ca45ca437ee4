package actions

import (
	"fmt"

	"github.com/google/uuid"

	"hla-gateway/internal/domain"
	"hla-gateway/internal/engine/handlers"
	"hla-gateway/internal/network"
	"hla-gateway/pkg/api"
)

// HandleActor публикует состояние локального актора. Новый актор получает
// INFO_ACTOR_CREATED, известный - INFO_ACTOR_UPDATED.
func HandleActor(ctx handlers.Context, p api.ActorPayload) (handlers.Result, error) {
	actorType, err := domain.ParseActorType(p.ActorType)
	if err != nil {
		return handlers.EmptyResult(), err
	}

	id := uuid.New()
	msgType := domain.MessageActorCreated
	if p.ActorID != "" {
		if id, err = uuid.Parse(p.ActorID); err != nil {
			return handlers.EmptyResult(), fmt.Errorf("actorId: %w", err)
		}
		if existing, ok := ctx.Actors.FindActor(id); ok {
			if existing.Remote {
				return handlers.EmptyResult(), fmt.Errorf("actor %s is owned by another federate", id)
			}
			if existing.Type != actorType {
				return handlers.EmptyResult(), fmt.Errorf("actor %s has type %s, not %s", id, existing.Type, actorType)
			}
			msgType = domain.MessageActorUpdated
		}
	}

	msg := domain.NewActorMessage(msgType, id, actorType)
	msg.Name = p.Name
	msg.SendingActorID = id
	for _, prop := range p.Props {
		v, err := network.ParseParam(prop)
		if err != nil {
			return handlers.EmptyResult(), err
		}
		if err := msg.SetParam(prop.Name, v); err != nil {
			return handlers.EmptyResult(), err
		}
	}

	return handlers.Result{
		Msg:      fmt.Sprintf("%s %s (%s)", msgType, id, actorType),
		MsgType:  "OBJECT",
		Messages: []*domain.Message{msg},
	}, nil
}

// HandleDelete удаляет локального актора.
func HandleDelete(ctx handlers.Context, p api.ActorRefPayload) (handlers.Result, error) {
	id, err := uuid.Parse(p.ActorID)
	if err != nil {
		return handlers.EmptyResult(), fmt.Errorf("actorId: %w", err)
	}
	actor, ok := ctx.Actors.FindActor(id)
	if !ok {
		return handlers.EmptyResult(), fmt.Errorf("actor %s not found", id)
	}
	if actor.Remote {
		return handlers.EmptyResult(), fmt.Errorf("actor %s is owned by another federate", id)
	}

	msg := domain.NewActorMessage(domain.MessageActorDeleted, id, actor.Type)
	msg.Name = actor.Name
	return handlers.Result{
		Msg:      fmt.Sprintf("actor %s deleted", id),
		MsgType:  "OBJECT",
		Messages: []*domain.Message{msg},
	}, nil
}
