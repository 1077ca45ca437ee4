package gateway

import (
	"fmt"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/ddm"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
)

// RegisterActorMapping регистрирует маппинг объекта на актора.
//
// Локальный маппинг уникален для типа актора, удалённый - для пары
// (класс объекта, тип сущности). При подключении класс сразу
// подписывается и публикуется в RTI.
func (c *Component) RegisterActorMapping(m *mapping.ObjectToActor) error {
	if m == nil {
		return fmt.Errorf("%w: nil object mapping", ErrConfiguration)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if m.LocalOrRemote.IsLocal() {
		if existing, ok := c.actorMappings[m.ActorType]; ok {
			return fmt.Errorf("%w: actor type %s already has local mapping %s",
				ErrConfiguration, m.ActorType, existing.Name())
		}
	}
	if m.LocalOrRemote.IsRemote() {
		for _, existing := range c.objectMappings[m.ObjectClassName] {
			if existing.SameKey(m.ObjectClassName, m.EntityType) {
				return fmt.Errorf("%w: object class %q with entity type %s is already mapped by %s",
					ErrConfiguration, m.ObjectClassName, entityTypeString(m.EntityType), existing.Name())
			}
		}
	}

	if m.LocalOrRemote.IsLocal() {
		c.actorMappings[m.ActorType] = m
	}
	if m.LocalOrRemote.IsRemote() {
		c.objectMappings[m.ObjectClassName] = append(c.objectMappings[m.ObjectClassName], m)
	}
	c.objectOrder = append(c.objectOrder, m)

	c.log.WithField("mapping", m.Name()).Debug("Registered object mapping")

	if c.connected {
		if err := c.syncObjectClass(m.ObjectClassName); err != nil {
			c.dropObjectMapping(m)
			_ = c.syncObjectClass(m.ObjectClassName)
			return err
		}
	}
	return nil
}

// UnregisterActorMapping удаляет локальный маппинг типа актора.
func (c *Component) UnregisterActorMapping(actorType domain.ActorType) error {
	m, ok := c.actorMappings[actorType]
	if !ok {
		return fmt.Errorf("%w: no local mapping for actor type %s", ErrConfiguration, actorType)
	}
	return c.unregisterObject(m)
}

// UnregisterObjectMapping удаляет удалённый маппинг класса объекта.
func (c *Component) UnregisterObjectMapping(className string, et *types.EntityType) error {
	for _, m := range c.objectMappings[className] {
		if m.SameKey(className, et) {
			return c.unregisterObject(m)
		}
	}
	return fmt.Errorf("%w: no mapping for object class %q with entity type %s",
		ErrConfiguration, className, entityTypeString(et))
}

func (c *Component) unregisterObject(m *mapping.ObjectToActor) error {
	c.dropObjectMapping(m)
	c.log.WithField("mapping", m.Name()).Debug("Unregistered object mapping")
	if c.connected {
		return c.syncObjectClass(m.ObjectClassName)
	}
	return nil
}

func (c *Component) dropObjectMapping(m *mapping.ObjectToActor) {
	if c.actorMappings[m.ActorType] == m {
		delete(c.actorMappings, m.ActorType)
	}
	list := c.objectMappings[m.ObjectClassName]
	for i, existing := range list {
		if existing == m {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.objectMappings, m.ObjectClassName)
	} else {
		c.objectMappings[m.ObjectClassName] = list
	}
	for i, existing := range c.objectOrder {
		if existing == m {
			c.objectOrder = append(c.objectOrder[:i:i], c.objectOrder[i+1:]...)
			break
		}
	}
}

// GetActorMapping возвращает локальный маппинг типа актора или nil.
func (c *Component) GetActorMapping(actorType domain.ActorType) *mapping.ObjectToActor {
	return c.actorMappings[actorType]
}

// GetObjectMapping возвращает удалённый маппинг класса для типа сущности.
//
// Среди маппингов с дискриминатором побеждает самый длинный совпавший префикс
// без wildcard, при равенстве - зарегистрированный первым. Тип nil находит
// только маппинг без дискриминатора.
func (c *Component) GetObjectMapping(className string, et *types.EntityType) *mapping.ObjectToActor {
	candidates := c.objectMappings[className]
	if et == nil {
		for _, m := range candidates {
			if m.EntityType == nil {
				return m
			}
		}
		return nil
	}
	best, _ := bestByEntityType(candidates, *et)
	return best
}

// bestByEntityType ранжирует маппинги с дискриминатором по совпадению с et.
func bestByEntityType(candidates []*mapping.ObjectToActor, et types.EntityType) (*mapping.ObjectToActor, int) {
	var best *mapping.ObjectToActor
	bestRank := -1
	for _, m := range candidates {
		if m.EntityType == nil {
			continue
		}
		rank, ok := m.EntityType.Match(et)
		if ok && rank > bestRank {
			best, bestRank = m, rank
		}
	}
	return best, bestRank
}

// ObjectMappings возвращает все маппинги объектов в порядке регистрации.
func (c *Component) ObjectMappings() []*mapping.ObjectToActor {
	return append([]*mapping.ObjectToActor(nil), c.objectOrder...)
}

// RegisterMessageMapping регистрирует маппинг взаимодействия на сообщение.
func (c *Component) RegisterMessageMapping(m *mapping.InteractionToMessage) error {
	if m == nil {
		return fmt.Errorf("%w: nil interaction mapping", ErrConfiguration)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if m.LocalOrRemote.IsLocal() {
		if existing, ok := c.messageMappings[m.MessageType]; ok {
			return fmt.Errorf("%w: message type %s already has local mapping %s",
				ErrConfiguration, m.MessageType, existing.Name())
		}
	}
	if m.LocalOrRemote.IsRemote() {
		if existing, ok := c.interactionMappings[m.InteractionName]; ok {
			return fmt.Errorf("%w: interaction class %q is already mapped by %s",
				ErrConfiguration, m.InteractionName, existing.Name())
		}
	}

	if m.LocalOrRemote.IsLocal() {
		c.messageMappings[m.MessageType] = m
	}
	if m.LocalOrRemote.IsRemote() {
		c.interactionMappings[m.InteractionName] = m
	}
	c.interactionOrder = append(c.interactionOrder, m)

	c.log.WithField("mapping", m.Name()).Debug("Registered interaction mapping")

	if c.connected {
		if err := c.syncInteractionClass(m.InteractionName); err != nil {
			c.dropMessageMapping(m)
			_ = c.syncInteractionClass(m.InteractionName)
			return err
		}
	}
	return nil
}

// UnregisterMessageMapping удаляет локальный маппинг типа сообщения.
func (c *Component) UnregisterMessageMapping(t domain.MessageType) error {
	m, ok := c.messageMappings[t]
	if !ok {
		return fmt.Errorf("%w: no local mapping for message type %s", ErrConfiguration, t)
	}
	return c.unregisterInteraction(m)
}

// UnregisterInteractionMapping удаляет удалённый маппинг класса взаимодействия.
func (c *Component) UnregisterInteractionMapping(name string) error {
	m, ok := c.interactionMappings[name]
	if !ok {
		return fmt.Errorf("%w: no mapping for interaction class %q", ErrConfiguration, name)
	}
	return c.unregisterInteraction(m)
}

func (c *Component) unregisterInteraction(m *mapping.InteractionToMessage) error {
	c.dropMessageMapping(m)
	c.log.WithField("mapping", m.Name()).Debug("Unregistered interaction mapping")
	if c.connected {
		return c.syncInteractionClass(m.InteractionName)
	}
	return nil
}

func (c *Component) dropMessageMapping(m *mapping.InteractionToMessage) {
	if c.messageMappings[m.MessageType] == m {
		delete(c.messageMappings, m.MessageType)
	}
	if c.interactionMappings[m.InteractionName] == m {
		delete(c.interactionMappings, m.InteractionName)
	}
	for i, existing := range c.interactionOrder {
		if existing == m {
			c.interactionOrder = append(c.interactionOrder[:i:i], c.interactionOrder[i+1:]...)
			break
		}
	}
}

// GetMessageMapping возвращает локальный маппинг типа сообщения или nil.
func (c *Component) GetMessageMapping(t domain.MessageType) *mapping.InteractionToMessage {
	return c.messageMappings[t]
}

// GetInteractionMapping возвращает удалённый маппинг класса взаимодействия или nil.
func (c *Component) GetInteractionMapping(name string) *mapping.InteractionToMessage {
	return c.interactionMappings[name]
}

// InteractionMappings возвращает все маппинги взаимодействий в порядке регистрации.
func (c *Component) InteractionMappings() []*mapping.InteractionToMessage {
	return append([]*mapping.InteractionToMessage(nil), c.interactionOrder...)
}

// ClearConfiguration удаляет все маппинги и калькуляторы DDM.
// Во время подключения запрещено: маппинги должны быть сняты с подписки.
func (c *Component) ClearConfiguration() error {
	if c.connected {
		return fmt.Errorf("%w: cannot clear configuration while connected to %q", ErrIllegalState, c.federation)
	}
	c.actorMappings = make(map[domain.ActorType]*mapping.ObjectToActor)
	c.objectMappings = make(map[string][]*mapping.ObjectToActor)
	c.objectOrder = nil
	c.messageMappings = make(map[domain.MessageType]*mapping.InteractionToMessage)
	c.interactionMappings = make(map[string]*mapping.InteractionToMessage)
	c.interactionOrder = nil
	c.subCalcs.Clear()
	c.pubCalcs.Clear()
	c.subRegions = make(map[string][]ddm.RegionData)
	return nil
}

func entityTypeString(et *types.EntityType) string {
	if et == nil {
		return "<none>"
	}
	return et.String()
}
