package gateway

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/translator"
)

// LogMappingError пишет в журнал ошибку отдельной записи маппинга с полным
// описанием полей на проводе и внутренних параметров.
func (c *Component) LogMappingError(m *mapping.OneToManyMapping, reason string) {
	fields := logrus.Fields{
		"hla_name": m.HLAName,
		"hla_type": m.HLAType.Name,
	}
	for i, p := range m.Params {
		fields[fmt.Sprintf("game_%d", i)] = fmt.Sprintf("%s:%s", p.GameName, p.GameType)
	}
	c.log.WithFields(fields).Error("Mapping error: " + reason)
}

// inbound - контекст перевода одного входящего события.
type inbound struct {
	msg         *domain.Message
	values      map[string][]byte
	mappingName string
	// entityTypeAttr - атрибут, из которого берётся ENTITY_TYPE_ID.
	entityTypeAttr string
	isNew          bool
}

// mapToMessage заполняет сообщение значениями полей с провода.
func (c *Component) mapToMessage(in inbound, entries []mapping.OneToManyMapping) {
	env := c.env()

	for i := range entries {
		e := &entries[i]

		if e.Special {
			v, ok := c.specialValue(in, e)
			if !ok {
				continue
			}
			for _, def := range e.Params {
				c.setParam(in.msg, e, def, v)
			}
			continue
		}

		buf, ok := in.values[e.HLAName]
		if !ok || e.HLAName == "" {
			c.applyDefaults(in.msg, e, in.isNew)
			continue
		}

		tr, ok := c.ctx.Translators.For(e.HLAType)
		if !ok {
			c.LogMappingError(e, "no parameter translator for type "+e.HLAType.Name)
			continue
		}
		values, err := tr.Decode(env, buf, e)
		if err != nil {
			c.LogMappingError(e, err.Error())
			continue
		}

		for j, def := range e.Params {
			if j >= len(values) || values[j] == nil {
				c.applyDefault(in.msg, e, def, in.isNew)
				continue
			}
			c.setParam(in.msg, e, def, values[j])
		}
	}
}

func (c *Component) specialValue(in inbound, e *mapping.OneToManyMapping) (domain.Value, bool) {
	switch e.HLAName {
	case mapping.MappingNameAttribute:
		return domain.String(in.mappingName), true
	case mapping.EntityTypeAttribute:
		buf, ok := in.values[in.entityTypeAttr]
		if !ok || in.entityTypeAttr == "" {
			return nil, false
		}
		et, err := c.decodeEntityType(in.entityTypeAttr, buf)
		if err != nil {
			c.LogMappingError(e, err.Error())
			return nil, false
		}
		return domain.String(et.String()), true
	}
	return nil, false
}

func (c *Component) applyDefaults(msg *domain.Message, e *mapping.OneToManyMapping, isNew bool) {
	for _, def := range e.Params {
		c.applyDefault(msg, e, def, isNew)
	}
}

// applyDefault подставляет значение по умолчанию для нового объекта или
// параметра, обязательного для симуляции.
func (c *Component) applyDefault(msg *domain.Message, e *mapping.OneToManyMapping, def mapping.ParameterDefinition, isNew bool) {
	if !isNew && !def.RequiredForGame {
		return
	}
	v, ok, err := def.DefaultValue()
	if err != nil {
		c.LogMappingError(e, err.Error())
		return
	}
	if !ok {
		if def.RequiredForGame {
			c.LogMappingError(e, fmt.Sprintf("required parameter %q has no value and no default", def.GameName))
		}
		return
	}
	c.setParam(msg, e, def, v)
}

// setParam записывает значение в параметр сообщения, приводя его к объявленному типу.
// Параметры aboutActorId и sendingActorId пишутся в заголовок.
func (c *Component) setParam(msg *domain.Message, e *mapping.OneToManyMapping, def mapping.ParameterDefinition, v domain.Value) {
	switch def.GameName {
	case mapping.AboutActorIDParameter, mapping.SendingActorIDParameter:
		ref, err := domain.Convert(v, domain.DataTypeActor)
		if err != nil {
			c.LogMappingError(e, err.Error())
			return
		}
		if def.GameName == mapping.AboutActorIDParameter {
			msg.AboutActorID = uuid.UUID(ref.(domain.ActorRef))
		} else {
			msg.SendingActorID = uuid.UUID(ref.(domain.ActorRef))
		}
		return
	}

	target := def.GameType
	if declared, ok := msg.ParamType(def.GameName); ok && !msg.IsDynamic() {
		target = declared
	}
	if _, isArray := v.(domain.Array); !isArray && v.Type() != target {
		converted, err := domain.Convert(v, target)
		if err != nil {
			c.LogMappingError(e, fmt.Sprintf("parameter %q: %v", def.GameName, err))
			return
		}
		v = converted
	}
	if err := msg.SetParam(def.GameName, v); err != nil {
		c.LogMappingError(e, err.Error())
	}
}

// outbound - контекст перевода исходящего сообщения.
type outbound struct {
	msg   *domain.Message
	isNew bool
	// skip - имена полей, которые компонент кодирует сам (EntityIdentifier, EntityType).
	skip map[string]bool
}

// mapToWire кодирует параметры сообщения в поля на проводе по именам.
// Поле попадает в результат, только если есть хотя бы одно настоящее значение.
func (c *Component) mapToWire(out outbound, entries []mapping.OneToManyMapping) map[string][]byte {
	env := c.env()
	result := make(map[string][]byte)

	for i := range entries {
		e := &entries[i]
		if e.Special || e.HLAName == "" || out.skip[e.HLAName] {
			continue
		}

		values := make([]domain.Value, len(e.Params))
		hasValue := false
		for j, def := range e.Params {
			if v, ok := c.messageValue(out.msg, def.GameName); ok {
				values[j] = v
				hasValue = true
				continue
			}
			v, ok, err := def.DefaultValue()
			if err != nil {
				c.LogMappingError(e, err.Error())
				continue
			}
			if ok {
				values[j] = v
				if e.RequiredForHLA || out.isNew {
					hasValue = true
				}
			}
		}
		if !hasValue {
			continue
		}

		tr, ok := c.ctx.Translators.For(e.HLAType)
		if !ok {
			c.LogMappingError(e, "no parameter translator for type "+e.HLAType.Name)
			continue
		}
		buf, err := tr.Encode(env, values, e)
		if err != nil {
			c.LogMappingError(e, err.Error())
			continue
		}
		result[e.HLAName] = buf
	}
	return result
}

func (c *Component) messageValue(msg *domain.Message, name string) (domain.Value, bool) {
	switch name {
	case mapping.AboutActorIDParameter:
		return domain.ActorRef(msg.AboutActorID), msg.AboutActorID != uuid.Nil
	case mapping.SendingActorIDParameter:
		return domain.ActorRef(msg.SendingActorID), msg.SendingActorID != uuid.Nil
	}
	return msg.Param(name)
}

// decodeEntityType разбирает атрибут с типом сущности транслятором его типа.
func (c *Component) decodeEntityType(attr string, buf []byte) (types.EntityType, error) {
	tr, ok := c.ctx.Translators.For(translator.RPREntityType)
	if !ok {
		return types.DecodeEntityType(buf)
	}
	m := &mapping.OneToManyMapping{
		HLAName: attr,
		HLAType: translator.RPREntityType,
		Params: []mapping.ParameterDefinition{
			{GameName: mapping.EntityTypeAttribute, GameType: domain.DataTypeString},
		},
	}
	values, err := tr.Decode(c.env(), buf, m)
	if err != nil {
		return 0, err
	}
	return types.ParseEntityType(values[0].String())
}
