package actions

import (
	"fmt"

	"github.com/google/uuid"

	"hla-gateway/internal/domain"
	"hla-gateway/internal/engine/handlers"
	"hla-gateway/internal/network"
	"hla-gateway/pkg/api"
)

// HandleMessage создаёт пользовательское сообщение из каталога. Шлюз
// отправит его взаимодействием, если для типа есть маппинг.
func HandleMessage(ctx handlers.Context, p api.MessagePayload) (handlers.Result, error) {
	t := domain.ParseMessageType(p.Type)
	msg, err := ctx.Messages.Create(t)
	if err != nil {
		return handlers.EmptyResult(), err
	}

	if msg.AboutActorID, err = optionalID(p.AboutActorID); err != nil {
		return handlers.EmptyResult(), fmt.Errorf("aboutActorId: %w", err)
	}
	if msg.SendingActorID, err = optionalID(p.SendingActorID); err != nil {
		return handlers.EmptyResult(), fmt.Errorf("sendingActorId: %w", err)
	}

	for _, param := range p.Params {
		v, err := network.ParseParam(param)
		if err != nil {
			return handlers.EmptyResult(), err
		}
		if declared, ok := msg.ParamType(param.Name); ok && declared != v.Type() {
			if v, err = domain.Convert(v, declared); err != nil {
				return handlers.EmptyResult(), fmt.Errorf("parameter %q: %w", param.Name, err)
			}
		}
		if err := msg.SetParam(param.Name, v); err != nil {
			return handlers.EmptyResult(), err
		}
	}

	return handlers.Result{
		Msg:      fmt.Sprintf("message %s sent", t),
		MsgType:  "INTERACTION",
		Messages: []*domain.Message{msg},
	}, nil
}

// HandleUnload выгружает карту: шлюз забывает живые соответствия.
func HandleUnload(_ handlers.Context) (handlers.Result, error) {
	return handlers.Result{
		Msg:      "map unloaded",
		MsgType:  "FEDERATION",
		Messages: []*domain.Message{domain.NewSystemMessage(domain.MessageMapUnloaded)},
	}, nil
}

func optionalID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
