package translator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/pkg/logger"
)

func (e Env) log() *logrus.Entry {
	if e.Log != nil {
		return e.Log
	}
	return logger.For("translator")
}

// toGame переводит значение с провода во внутренний тип параметра.
func toGame(env Env, m *mapping.OneToManyMapping, def mapping.ParameterDefinition, w domain.Value) (domain.Value, error) {
	if def.HasEnumTable() {
		return domain.Convert(enumToGame(env, m, def, w), def.GameType)
	}
	if def.GameType == domain.DataTypeActor {
		return resolveActor(env, w), nil
	}
	return domain.Convert(w, def.GameType)
}

// enumToGame применяет таблицу перечислений. Неизвестное значение заменяется
// значением по умолчанию с предупреждением.
func enumToGame(env Env, m *mapping.OneToManyMapping, def mapping.ParameterDefinition, w domain.Value) domain.Value {
	game, ok := def.GameEnum(w.String())
	if !ok {
		env.log().WithFields(logrus.Fields{
			"hla_name":  m.HLAName,
			"game_name": def.GameName,
			"value":     w.String(),
			"default":   def.Default,
		}).Warn("Unmapped enumeration value, using default")
		game = def.Default
	}
	return domain.Enum(game)
}

// toHLA переводит внутреннее значение в значение для кодирования на провод.
// Значение без строки в таблице перечислений - ошибка: угадывать нельзя.
func toHLA(env Env, t mapping.AttributeType, def mapping.ParameterDefinition, v domain.Value) (domain.Value, error) {
	if def.HasEnumTable() {
		hla, ok := def.HLAEnum(v.String())
		if !ok {
			return nil, fmt.Errorf("value %q of %s has no enumeration mapping", v.String(), def.GameName)
		}
		return domain.String(hla), nil
	}

	if ref, ok := v.(domain.ActorRef); ok && t.Name == RPREntityIdentifier.Name {
		if uuid.UUID(ref) == uuid.Nil || env.Actors == nil {
			return domain.String(""), nil
		}
		id, found := env.Actors.EntityIdentifierForActor(uuid.UUID(ref))
		if !found {
			env.log().WithField("actor_id", uuid.UUID(ref)).Debug("No entity identifier for referenced actor")
			return domain.String(""), nil
		}
		return domain.String(id.String()), nil
	}
	return v, nil
}

// resolveActor находит актора по EntityIdentifier. Неизвестный идентификатор даёт пустую ссылку.
func resolveActor(env Env, w domain.Value) domain.Value {
	if ref, ok := w.(domain.ActorRef); ok {
		return ref
	}

	if parsed, err := uuid.Parse(w.String()); err == nil {
		return domain.ActorRef(parsed)
	}

	id, err := types.ParseEntityIdentifier(w.String())
	if err != nil || id.IsNil() || env.Actors == nil {
		return domain.ActorRef(uuid.Nil)
	}
	actor, ok := env.Actors.ActorForEntityIdentifier(id)
	if !ok {
		return domain.ActorRef(uuid.Nil)
	}
	return domain.ActorRef(actor)
}
