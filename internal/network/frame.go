package network

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"hla-gateway/internal/domain"
	"hla-gateway/pkg/api"
)

// Frame переводит внутреннее сообщение в кадр потока.
func Frame(msg *domain.Message, tick uint64) api.StreamMessage {
	frame := api.StreamMessage{
		Type:   msg.Type.String(),
		Tick:   tick,
		Name:   msg.Name,
		Source: msg.Source,
		Params: ParamViews(msg.Params()),
	}
	if msg.AboutActorID != uuid.Nil {
		frame.AboutActorID = msg.AboutActorID.String()
	}
	if msg.SendingActorID != uuid.Nil {
		frame.SendingActorID = msg.SendingActorID.String()
	}
	if !msg.ActorType.IsZero() {
		frame.ActorType = msg.ActorType.FullName()
	}
	return frame
}

// ParamViews переводит параметры в текстовый вид.
func ParamViews(params []domain.Param) []api.ParamView {
	if len(params) == 0 {
		return nil
	}
	out := make([]api.ParamView, 0, len(params))
	for _, p := range params {
		out = append(out, ParamView(p.Name, p.Value))
	}
	return out
}

// ParamView описывает одно значение.
func ParamView(name string, v domain.Value) api.ParamView {
	return api.ParamView{
		Name:  name,
		Type:  strings.ToLower(v.Type().String()),
		Value: v.String(),
	}
}

// ParseParam разбирает текстовое значение из команды наблюдателя.
func ParseParam(p api.ParamView) (domain.Value, error) {
	t := domain.ParseDataType(p.Type)
	if t == domain.DataTypeUnknown {
		return nil, fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Type)
	}
	v, err := domain.ParseValue(t, p.Value)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return v, nil
}
