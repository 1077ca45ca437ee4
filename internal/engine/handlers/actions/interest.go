package actions

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"hla-gateway/internal/ddm"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/engine/handlers"
	"hla-gateway/pkg/api"
)

// HandleInterest переносит точку интереса наблюдателя в калькуляторы DDM.
func HandleInterest(_ handlers.Context, p api.InterestPayload) (handlers.Result, error) {
	msg := domain.NewDynamicMessage(domain.MessageInterestChanged)
	viewpoint := mgl64.Vec3{p.X, p.Y, p.Z}
	if err := msg.SetParam(ddm.InterestViewpoint, domain.Vec3(viewpoint)); err != nil {
		return handlers.EmptyResult(), err
	}
	return handlers.Result{
		Msg:      fmt.Sprintf("interest moved to %s", domain.Vec3(viewpoint)),
		MsgType:  "FEDERATION",
		Messages: []*domain.Message{msg},
	}, nil
}
