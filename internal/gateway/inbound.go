package gateway

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/objects"
	"hla-gateway/internal/rti"
)

// DiscoverObjectInstance запоминает удалённый экземпляр. Актор создаётся по
// первому обновлению атрибутов: только оно несёт тип сущности.
func (c *Component) DiscoverObjectInstance(h rti.ObjectInstanceHandle, class rti.ObjectClassHandle, name string) {
	oc, err := c.objectClassByHandle(class)
	if err != nil {
		c.log.WithError(err).WithField("handle", h).Error("Discovered object of unknown class")
		return
	}
	if _, ok := c.runtime.ByHandle(h); ok {
		c.log.WithField("handle", h).Warn("Object instance discovered twice")
		return
	}
	if len(c.objectMappings[oc.name]) == 0 {
		c.log.WithField("object_class", oc.name).Debug("No mapping for discovered object class")
		return
	}

	if err := c.runtime.AddPending(h, oc.name, name, uuid.New()); err != nil {
		c.log.WithError(err).WithField("handle", h).Error("Failed to track discovered object")
		return
	}
	c.log.WithFields(logrus.Fields{
		"handle":       h,
		"object_class": oc.name,
		"name":         name,
	}).Debug("Discovered object instance")
}

// ReflectAttributeValues переводит обновление атрибутов в сообщение о создании
// или обновлении актора.
func (c *Component) ReflectAttributeValues(h rti.ObjectInstanceHandle, attrs rti.AttributeValueMap, _ []byte) {
	entry, ok := c.runtime.ByHandle(h)
	if !ok {
		c.log.WithField("handle", h).Debug("Attribute update for unknown object instance")
		return
	}
	if !entry.Remote {
		return
	}

	oc, err := c.objectClass(entry.ClassName)
	if err != nil {
		c.log.WithError(err).Error("Attribute update for unresolvable object class")
		return
	}
	values := c.namedAttributes(oc, attrs)

	if entry.Pending {
		c.resolvePending(entry, values)
		return
	}

	m := entry.Mapping
	msg := domain.NewActorMessage(domain.MessageActorUpdated, entry.ActorID, m.ActorType)
	msg.Name = entry.Name
	msg.Source = m.Name()
	c.recordEntityID(entry, m, values)
	c.mapToMessage(inbound{
		msg:            msg,
		values:         values,
		mappingName:    m.Name(),
		entityTypeAttr: m.EffectiveEntityTypeAttributeName(),
	}, m.Mappings)
	c.dispatch(msg)
}

func (c *Component) resolvePending(entry *objects.Entry, values map[string][]byte) {
	res := c.BestObjectToActor(entry.ClassName, values)
	fields := logrus.Fields{
		"handle":       entry.Handle,
		"object_class": entry.ClassName,
		"name":         entry.Name,
		"candidates":   res.Candidates,
	}

	switch res.Status {
	case Ambiguous:
		c.log.WithFields(fields).Error("Mapping error: several mappings match and no entity type was received, update dropped")
		return
	case NotFound:
		c.log.WithFields(fields).Warn("No mapping matches the object's entity type, ignoring object")
		c.runtime.RemoveByHandle(entry.Handle)
		return
	case Found:
	}

	m := res.Mapping
	if _, err := c.runtime.Resolve(entry.Handle, m); err != nil {
		c.log.WithFields(fields).WithError(err).Error("Failed to resolve object instance")
		return
	}

	msg := domain.NewActorMessage(domain.MessageActorCreated, entry.ActorID, m.ActorType)
	msg.Name = entry.Name
	msg.Source = m.Name()
	c.recordEntityID(entry, m, values)
	c.mapToMessage(inbound{
		msg:            msg,
		values:         values,
		mappingName:    m.Name(),
		entityTypeAttr: m.EffectiveEntityTypeAttributeName(),
		isNew:          true,
	}, m.Mappings)

	c.log.WithFields(fields).WithField("mapping", m.Name()).Debug("Remote object resolved")
	c.dispatch(msg)
}

// BestObjectToActor выбирает маппинг для удалённого объекта по имени класса
// и значениям его атрибутов.
//
// Единственный кандидат выбирается сразу, если у него нет дискриминатора
// или тип сущности ещё не получен. Иначе кандидаты с дискриминатором
// ранжируются по типу сущности из своего атрибута типа. Без типа сущности
// выбор неоднозначен. Если тип получен, но не совпал ни с одним
// дискриминатором, выбирается маппинг без дискриминатора, если он есть.
func (c *Component) BestObjectToActor(className string, values map[string][]byte) MappingResult[*mapping.ObjectToActor] {
	candidates := c.objectMappings[className]
	switch len(candidates) {
	case 0:
		return notFound[*mapping.ObjectToActor](0)
	case 1:
		m := candidates[0]
		if _, ok := values[m.EffectiveEntityTypeAttributeName()]; m.EntityType == nil || !ok {
			return found(m, 1)
		}
	}

	decoded := make(map[string]types.EntityType)
	entityType := func(attr string) (types.EntityType, bool) {
		if et, ok := decoded[attr]; ok {
			return et, true
		}
		buf, ok := values[attr]
		if !ok {
			return 0, false
		}
		et, err := c.decodeEntityType(attr, buf)
		if err != nil {
			c.log.WithError(err).WithField("attribute", attr).Warn("Failed to decode entity type")
			return 0, false
		}
		decoded[attr] = et
		return et, true
	}

	var best, fallback *mapping.ObjectToActor
	bestRank := -1
	for _, m := range candidates {
		if m.EntityType == nil {
			fallback = m
			continue
		}
		et, ok := entityType(m.EffectiveEntityTypeAttributeName())
		if !ok {
			continue
		}
		if rank, ok := m.EntityType.Match(et); ok && rank > bestRank {
			best, bestRank = m, rank
		}
	}
	if best != nil {
		return found(best, len(candidates))
	}

	if _, ok := entityType(mapping.DefaultEntityTypeAttributeName); !ok && len(decoded) == 0 {
		return ambiguous[*mapping.ObjectToActor](len(candidates))
	}
	if fallback != nil {
		return found(fallback, len(candidates))
	}
	return notFound[*mapping.ObjectToActor](len(candidates))
}

func (c *Component) recordEntityID(entry *objects.Entry, m *mapping.ObjectToActor, values map[string][]byte) {
	if m.EntityIDAttributeName == "" {
		return
	}
	buf, ok := values[m.EntityIDAttributeName]
	if !ok {
		return
	}
	eid, err := types.DecodeEntityIdentifier(buf)
	if err != nil {
		c.log.WithError(err).WithField("handle", entry.Handle).Warn("Invalid entity identifier")
		return
	}
	if eid.IsNil() {
		return
	}
	if err := c.runtime.PutEntityID(eid, entry.ActorID); err != nil {
		c.log.WithError(err).WithField("handle", entry.Handle).Warn("Entity identifier conflict")
	}
}

// RemoveObjectInstance удаляет удалённый объект. Неизвестный хэндл игнорируется.
func (c *Component) RemoveObjectInstance(h rti.ObjectInstanceHandle, _ []byte) {
	entry, ok := c.runtime.ByHandle(h)
	if !ok || !entry.Remote {
		c.log.WithField("handle", h).Debug("Remove for unknown object instance")
		return
	}
	c.runtime.RemoveByHandle(h)
	if entry.Pending {
		return
	}

	msg := domain.NewActorMessage(domain.MessageActorDeleted, entry.ActorID, entry.Mapping.ActorType)
	msg.Name = entry.Name
	msg.Source = entry.Mapping.Name()
	c.dispatch(msg)
}

// ReceiveInteraction переводит взаимодействие в сообщение.
func (c *Component) ReceiveInteraction(class rti.InteractionClassHandle, params rti.ParameterValueMap, _ []byte) {
	ic, err := c.interactionClassByHandle(class)
	if err != nil {
		c.log.WithError(err).Error("Received interaction of unknown class")
		return
	}
	m, ok := c.interactionMappings[ic.name]
	if !ok {
		c.log.WithField("interaction_class", ic.name).Warn("No mapping for received interaction, dropped")
		return
	}

	msg := c.newMessage(m.MessageType)
	msg.Source = m.Name()
	c.mapToMessage(inbound{
		msg:         msg,
		values:      c.namedParameters(ic, params),
		mappingName: m.Name(),
		isNew:       true,
	}, m.Mappings)
	c.dispatch(msg)
}

// newMessage создаёт сообщение из каталога, а для необъявленного типа - с динамическими параметрами.
func (c *Component) newMessage(t domain.MessageType) *domain.Message {
	if c.ctx.Messages.Has(t) {
		if msg, err := c.ctx.Messages.Create(t); err == nil {
			return msg
		}
	}
	return domain.NewDynamicMessage(t)
}

// ProvideAttributeValueUpdate отправляет полное состояние локального актора.
func (c *Component) ProvideAttributeValueUpdate(h rti.ObjectInstanceHandle, _ []rti.AttributeHandle) {
	entry, ok := c.runtime.ByHandle(h)
	if !ok || entry.Remote || entry.Mapping == nil {
		c.log.WithField("handle", h).Debug("Update requested for unknown local object")
		return
	}
	if c.ctx.Actors == nil {
		return
	}
	actor, ok := c.ctx.Actors.FindActor(entry.ActorID)
	if !ok {
		c.log.WithField("actor_id", entry.ActorID).Warn("Update requested for missing actor")
		return
	}
	c.sendUpdate(domain.NewActorUpdateMessage(actor), entry.Mapping, entry, true)
}

func (c *Component) dispatch(msg *domain.Message) {
	if c.ctx.Dispatcher == nil {
		return
	}
	c.ctx.Dispatcher.SendMessage(msg)
}
