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

// DispatchNetworkMessage отправляет внутреннее сообщение в федерацию.
// Без подключения сообщение игнорируется.
func (c *Component) DispatchNetworkMessage(msg *domain.Message) {
	if !c.connected || msg == nil {
		return
	}

	switch msg.Type {
	case domain.MessageActorDeleted:
		c.deleteActor(msg.AboutActorID)
	case domain.MessageActorCreated, domain.MessageActorUpdated:
		m := c.actorMappings[msg.ActorType]
		if m == nil {
			c.log.WithField("actor_type", msg.ActorType).Debug("No local mapping for actor type")
			return
		}
		c.updateActor(msg, m)
	default:
		c.sendInteraction(msg)
	}
}

// ProcessMessage обрабатывает системные сообщения симуляции.
func (c *Component) ProcessMessage(msg *domain.Message) {
	switch msg.Type {
	case domain.MessageTick:
		if !c.connected {
			return
		}
		if c.ddmEnabled {
			c.updateDDM()
		}
		if err := c.ctx.Ambassador.Tick(); err != nil {
			c.log.WithError(err).Error("RTI tick failed")
		}
	case domain.MessageMapUnloaded:
		c.clearRuntime()
	case domain.MessageInterestChanged:
		c.applyInterest(msg)
		if c.connected && c.ddmEnabled {
			c.updateDDM()
		}
	}
}

func (c *Component) updateActor(msg *domain.Message, m *mapping.ObjectToActor) {
	entry, ok := c.runtime.ByActor(msg.AboutActorID)
	if ok {
		if entry.Remote {
			return
		}
		c.sendUpdate(msg, m, entry, false)
		return
	}

	name, named := c.runtime.NameForActor(msg.AboutActorID)
	if !named {
		name = instanceName(msg)
	}

	if c.opts.ReserveNames && !named {
		c.regQueue[msg.AboutActorID] = append(c.regQueue[msg.AboutActorID], msg)
		if c.runtime.IsReserving(msg.AboutActorID) {
			return
		}
		c.runtime.Reserve(name, msg.AboutActorID)
		if err := c.ctx.Ambassador.ReserveObjectInstanceName(name); err != nil {
			c.log.WithError(err).WithField("name", name).Error("Failed to reserve object instance name")
			c.runtime.Unreserve(name)
			delete(c.regQueue, msg.AboutActorID)
		}
		return
	}

	entry, err := c.registerLocal(msg.AboutActorID, name, m)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"actor_id": msg.AboutActorID,
			"mapping":  m.Name(),
		}).Error("Failed to register object instance")
		return
	}
	c.sendUpdate(msg, m, entry, true)
}

// registerLocal регистрирует экземпляр объекта для локального актора и
// выделяет ему EntityIdentifier.
func (c *Component) registerLocal(actorID uuid.UUID, name string, m *mapping.ObjectToActor) (*objects.Entry, error) {
	oc, err := c.objectClass(m.ObjectClassName)
	if err != nil {
		return nil, err
	}
	h, err := c.ctx.Ambassador.RegisterObjectInstance(oc.handle, name)
	if err != nil {
		return nil, err
	}

	entry := &objects.Entry{
		Handle:    h,
		ActorID:   actorID,
		ClassName: m.ObjectClassName,
		Name:      name,
		Mapping:   m,
	}
	if err := c.runtime.Put(entry); err != nil {
		return nil, err
	}

	c.nextEntity++
	eid := types.NewEntityIdentifier(c.opts.SiteID, c.opts.ApplicationID, c.nextEntity)
	if err := c.runtime.PutEntityID(eid, actorID); err != nil {
		c.log.WithError(err).WithField("actor_id", actorID).Warn("Failed to assign entity identifier")
	}

	c.log.WithFields(logrus.Fields{
		"handle":    h,
		"actor_id":  actorID,
		"name":      name,
		"entity_id": eid,
	}).Debug("Registered local object instance")
	return entry, nil
}

// sendUpdate кодирует сообщение об акторе в обновление атрибутов.
// Для нового объекта поля со значениями по умолчанию отправляются тоже.
func (c *Component) sendUpdate(msg *domain.Message, m *mapping.ObjectToActor, entry *objects.Entry, isNew bool) {
	oc, err := c.objectClass(m.ObjectClassName)
	if err != nil {
		c.log.WithError(err).Error("Cannot update object of unresolvable class")
		return
	}

	skip := make(map[string]bool, 2)
	values := make(map[string][]byte)

	if m.EntityIDAttributeName != "" {
		if eid, ok := c.runtime.EntityIdentifierForActor(entry.ActorID); ok {
			values[m.EntityIDAttributeName] = eid.Encode()
			skip[m.EntityIDAttributeName] = true
		}
	}
	if m.EntityType != nil {
		attr := m.EffectiveEntityTypeAttributeName()
		values[attr] = m.EntityType.Encode()
		skip[attr] = true
	}
	for name, buf := range c.mapToWire(outbound{msg: msg, isNew: isNew, skip: skip}, m.Mappings) {
		values[name] = buf
	}
	if len(values) == 0 {
		return
	}

	attrs := make(rti.AttributeValueMap, len(values))
	for name, buf := range values {
		h, err := c.attributeHandle(oc, name)
		if err != nil {
			c.log.WithError(err).Warn("Skipping attribute without handle")
			continue
		}
		attrs[h] = buf
	}
	if err := c.ctx.Ambassador.UpdateAttributeValues(entry.Handle, attrs, []byte(m.Name())); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"handle":  entry.Handle,
			"mapping": m.Name(),
		}).Error("Failed to update attribute values")
	}
}

func (c *Component) deleteActor(actorID uuid.UUID) {
	delete(c.regQueue, actorID)

	entry, ok := c.runtime.ByActor(actorID)
	if !ok {
		c.runtime.RemoveByActor(actorID)
		return
	}
	if entry.Remote {
		return
	}
	c.runtime.RemoveByHandle(entry.Handle)
	if err := c.ctx.Ambassador.DeleteObjectInstance(entry.Handle, nil); err != nil {
		c.log.WithError(err).WithField("handle", entry.Handle).Error("Failed to delete object instance")
	}
}

func (c *Component) sendInteraction(msg *domain.Message) {
	m := c.messageMappings[msg.Type]
	if m == nil {
		c.log.WithField("message_type", msg.Type).Debug("No local mapping for message type")
		return
	}
	ic, err := c.interactionClass(m.InteractionName)
	if err != nil {
		c.log.WithError(err).Error("Cannot send interaction of unresolvable class")
		return
	}

	values := c.mapToWire(outbound{msg: msg, isNew: true}, m.Mappings)
	params := make(rti.ParameterValueMap, len(values))
	for name, buf := range values {
		h, err := c.parameterHandle(ic, name)
		if err != nil {
			c.log.WithError(err).Warn("Skipping parameter without handle")
			continue
		}
		params[h] = buf
	}
	if err := c.ctx.Ambassador.SendInteraction(ic.handle, params, []byte(m.Name())); err != nil {
		c.log.WithError(err).WithField("mapping", m.Name()).Error("Failed to send interaction")
	}
}

// ObjectInstanceNameReservationSucceeded связывает имя с актором и повторно
// отправляет отложенные сообщения: первое из них регистрирует объект.
func (c *Component) ObjectInstanceNameReservationSucceeded(name string) {
	actorID, ok := c.runtime.Unreserve(name)
	if !ok {
		c.log.WithField("name", name).Warn("Reservation succeeded for unknown name")
		return
	}
	if err := c.runtime.PutName(name, actorID); err != nil {
		c.log.WithError(err).WithField("name", name).Error("Reserved name conflict")
		delete(c.regQueue, actorID)
		return
	}

	queued := c.regQueue[actorID]
	delete(c.regQueue, actorID)
	for _, msg := range queued {
		c.DispatchNetworkMessage(msg)
	}
}

// ObjectInstanceNameReservationFailed отбрасывает отложенные сообщения актора.
// Повторной попытки нет: занятое имя останется занятым.
func (c *Component) ObjectInstanceNameReservationFailed(name string) {
	actorID, ok := c.runtime.Unreserve(name)
	if !ok {
		c.log.WithField("name", name).Warn("Reservation failed for unknown name")
		return
	}
	dropped := len(c.regQueue[actorID])
	delete(c.regQueue, actorID)
	c.log.WithFields(logrus.Fields{
		"name":     name,
		"actor_id": actorID,
		"dropped":  dropped,
	}).Error("Object instance name reservation failed, actor will not be published")
}

// instanceName - имя экземпляра в федерации. Имена акторов не уникальны,
// поэтому используется идентификатор.
func instanceName(msg *domain.Message) string {
	return msg.AboutActorID.String()
}
