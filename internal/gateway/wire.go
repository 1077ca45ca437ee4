package gateway

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"hla-gateway/internal/rti"
)

// objectClass - хэндлы и состояние подписки класса объектов в RTI.
type objectClass struct {
	name   string
	handle rti.ObjectClassHandle
	attrs  map[string]rti.AttributeHandle
	names  map[rti.AttributeHandle]string
	// subscribed по имени калькулятора DDM ("" без DDM).
	subscribed map[string]map[string]bool
	published  map[string]bool
}

type interactionClass struct {
	name   string
	handle rti.InteractionClassHandle
	params map[string]rti.ParameterHandle
	names  map[rti.ParameterHandle]string

	subscribed    bool
	subscribedKey string
	published     bool
}

// wireState живёт только во время подключения.
type wireState struct {
	classes             map[string]*objectClass
	classByHandle       map[rti.ObjectClassHandle]*objectClass
	interactions        map[string]*interactionClass
	interactionByHandle map[rti.InteractionClassHandle]*interactionClass
}

func newWireState() *wireState {
	return &wireState{
		classes:             make(map[string]*objectClass),
		classByHandle:       make(map[rti.ObjectClassHandle]*objectClass),
		interactions:        make(map[string]*interactionClass),
		interactionByHandle: make(map[rti.InteractionClassHandle]*interactionClass),
	}
}

func (c *Component) objectClass(name string) (*objectClass, error) {
	if oc, ok := c.wire.classes[name]; ok {
		return oc, nil
	}
	h, err := c.ctx.Ambassador.ObjectClassHandle(name)
	if err != nil {
		return nil, fmt.Errorf("object class %q: %w", name, err)
	}
	oc := &objectClass{
		name:       name,
		handle:     h,
		attrs:      make(map[string]rti.AttributeHandle),
		names:      make(map[rti.AttributeHandle]string),
		subscribed: make(map[string]map[string]bool),
		published:  make(map[string]bool),
	}
	c.wire.classes[name] = oc
	c.wire.classByHandle[h] = oc
	return oc, nil
}

func (c *Component) objectClassByHandle(h rti.ObjectClassHandle) (*objectClass, error) {
	if oc, ok := c.wire.classByHandle[h]; ok {
		return oc, nil
	}
	name, err := c.ctx.Ambassador.ObjectClassName(h)
	if err != nil {
		return nil, err
	}
	return c.objectClass(name)
}

func (c *Component) attributeHandle(oc *objectClass, name string) (rti.AttributeHandle, error) {
	if h, ok := oc.attrs[name]; ok {
		return h, nil
	}
	h, err := c.ctx.Ambassador.AttributeHandle(oc.handle, name)
	if err != nil {
		return 0, fmt.Errorf("attribute %q of %q: %w", name, oc.name, err)
	}
	oc.attrs[name] = h
	oc.names[h] = name
	return h, nil
}

func (c *Component) attributeHandles(oc *objectClass, names []string) ([]rti.AttributeHandle, error) {
	out := make([]rti.AttributeHandle, 0, len(names))
	for _, name := range names {
		h, err := c.attributeHandle(oc, name)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// namedAttributes переводит значения атрибутов из хэндлов в имена.
func (c *Component) namedAttributes(oc *objectClass, attrs rti.AttributeValueMap) map[string][]byte {
	out := make(map[string][]byte, len(attrs))
	for h, buf := range attrs {
		name, ok := oc.names[h]
		if !ok {
			n, err := c.ctx.Ambassador.AttributeName(oc.handle, h)
			if err != nil {
				c.log.WithField("object_class", oc.name).WithError(err).Warn("Unknown attribute handle")
				continue
			}
			name = n
			oc.attrs[name] = h
			oc.names[h] = name
		}
		out[name] = buf
	}
	return out
}

func (c *Component) interactionClass(name string) (*interactionClass, error) {
	if ic, ok := c.wire.interactions[name]; ok {
		return ic, nil
	}
	h, err := c.ctx.Ambassador.InteractionClassHandle(name)
	if err != nil {
		return nil, fmt.Errorf("interaction class %q: %w", name, err)
	}
	ic := &interactionClass{
		name:   name,
		handle: h,
		params: make(map[string]rti.ParameterHandle),
		names:  make(map[rti.ParameterHandle]string),
	}
	c.wire.interactions[name] = ic
	c.wire.interactionByHandle[h] = ic
	return ic, nil
}

func (c *Component) interactionClassByHandle(h rti.InteractionClassHandle) (*interactionClass, error) {
	if ic, ok := c.wire.interactionByHandle[h]; ok {
		return ic, nil
	}
	name, err := c.ctx.Ambassador.InteractionClassName(h)
	if err != nil {
		return nil, err
	}
	return c.interactionClass(name)
}

func (c *Component) parameterHandle(ic *interactionClass, name string) (rti.ParameterHandle, error) {
	if h, ok := ic.params[name]; ok {
		return h, nil
	}
	h, err := c.ctx.Ambassador.ParameterHandle(ic.handle, name)
	if err != nil {
		return 0, fmt.Errorf("parameter %q of %q: %w", name, ic.name, err)
	}
	ic.params[name] = h
	ic.names[h] = name
	return h, nil
}

func (c *Component) namedParameters(ic *interactionClass, params rti.ParameterValueMap) map[string][]byte {
	out := make(map[string][]byte, len(params))
	for h, buf := range params {
		name, ok := ic.names[h]
		if !ok {
			n, err := c.ctx.Ambassador.ParameterName(ic.handle, h)
			if err != nil {
				c.log.WithField("interaction_class", ic.name).WithError(err).Warn("Unknown parameter handle")
				continue
			}
			name = n
			ic.params[name] = h
			ic.names[h] = name
		}
		out[name] = buf
	}
	return out
}

// subscriptionKey - имя калькулятора DDM, регионы которого используются при подписке.
func (c *Component) subscriptionKey(calculator string) string {
	if !c.ddmEnabled {
		return ""
	}
	return calculator
}

// syncObjectClass приводит подписку и публикацию класса в RTI к набору
// атрибутов, на которые ссылаются зарегистрированные маппинги. Вызывается
// только при подключении и отправляет лишь разницу.
func (c *Component) syncObjectClass(className string) error {
	oc, err := c.objectClass(className)
	if err != nil {
		return err
	}

	wantSub := make(map[string]map[string]bool)
	wantPub := make(map[string]bool)
	for _, m := range c.objectOrder {
		if m.ObjectClassName != className {
			continue
		}
		names := m.AttributeNames()
		if m.LocalOrRemote.IsRemote() {
			key := c.subscriptionKey(m.DDMCalculatorName)
			if wantSub[key] == nil {
				wantSub[key] = make(map[string]bool)
			}
			for _, n := range names {
				wantSub[key][n] = true
			}
		}
		if m.LocalOrRemote.IsLocal() {
			for _, n := range names {
				wantPub[n] = true
			}
		}
	}

	for _, key := range unionKeys(wantSub, oc.subscribed) {
		if err := c.syncClassSubscription(oc, key, wantSub[key]); err != nil {
			return err
		}
	}

	add, remove := diff(wantPub, oc.published)
	if len(add) > 0 {
		hs, err := c.attributeHandles(oc, add)
		if err != nil {
			return err
		}
		c.log.WithField("object_class", className).WithField("attributes", add).Debug("Publishing object class")
		if err := c.ctx.Ambassador.PublishObjectClassAttributes(oc.handle, hs); err != nil {
			return fmt.Errorf("publish %q: %w", className, err)
		}
		for _, n := range add {
			oc.published[n] = true
		}
	}
	if len(remove) > 0 {
		hs, err := c.attributeHandles(oc, remove)
		if err != nil {
			return err
		}
		c.log.WithField("object_class", className).WithField("attributes", remove).Debug("Unpublishing object class")
		if err := c.ctx.Ambassador.UnpublishObjectClassAttributes(oc.handle, hs); err != nil {
			return fmt.Errorf("unpublish %q: %w", className, err)
		}
		for _, n := range remove {
			delete(oc.published, n)
		}
	}
	return nil
}

func (c *Component) syncClassSubscription(oc *objectClass, key string, want map[string]bool) error {
	regions, ok := c.regionHandles(key)
	if !ok {
		c.log.WithFields(logrus.Fields{
			"object_class": oc.name,
			"calculator":   key,
		}).Warn("No DDM regions for calculator, object class is not subscribed")
		return nil
	}

	have := oc.subscribed[key]
	add, remove := diff(want, have)
	if len(add) > 0 {
		hs, err := c.attributeHandles(oc, add)
		if err != nil {
			return err
		}
		c.log.WithField("object_class", oc.name).WithField("attributes", add).Debug("Subscribing to object class")
		if err := c.ctx.Ambassador.SubscribeObjectClassAttributes(oc.handle, hs, regions...); err != nil {
			return fmt.Errorf("subscribe %q: %w", oc.name, err)
		}
		if have == nil {
			have = make(map[string]bool)
			oc.subscribed[key] = have
		}
		for _, n := range add {
			have[n] = true
		}
	}
	if len(remove) > 0 {
		hs, err := c.attributeHandles(oc, remove)
		if err != nil {
			return err
		}
		c.log.WithField("object_class", oc.name).WithField("attributes", remove).Debug("Unsubscribing from object class")
		if err := c.ctx.Ambassador.UnsubscribeObjectClassAttributes(oc.handle, hs, regions...); err != nil {
			return fmt.Errorf("unsubscribe %q: %w", oc.name, err)
		}
		for _, n := range remove {
			delete(have, n)
		}
		if len(have) == 0 {
			delete(oc.subscribed, key)
		}
	}
	return nil
}

// syncInteractionClass приводит подписку и публикацию взаимодействия к маппингам.
func (c *Component) syncInteractionClass(name string) error {
	ic, err := c.interactionClass(name)
	if err != nil {
		return err
	}

	remote := c.interactionMappings[name]
	wantPub := false
	for _, m := range c.interactionOrder {
		if m.InteractionName == name && m.LocalOrRemote.IsLocal() {
			wantPub = true
		}
	}

	key := ""
	if remote != nil {
		key = c.subscriptionKey(remote.DDMCalculatorName)
	}
	if ic.subscribed && (remote == nil || ic.subscribedKey != key) {
		regions, _ := c.regionHandles(ic.subscribedKey)
		if err := c.ctx.Ambassador.UnsubscribeInteractionClass(ic.handle, regions...); err != nil {
			return fmt.Errorf("unsubscribe interaction %q: %w", name, err)
		}
		ic.subscribed = false
	}
	if remote != nil && !ic.subscribed {
		regions, ok := c.regionHandles(key)
		if !ok {
			c.log.WithFields(logrus.Fields{
				"interaction_class": name,
				"calculator":        key,
			}).Warn("No DDM regions for calculator, interaction is not subscribed")
		} else {
			c.log.WithField("interaction_class", name).Debug("Subscribing to interaction class")
			if err := c.ctx.Ambassador.SubscribeInteractionClass(ic.handle, regions...); err != nil {
				return fmt.Errorf("subscribe interaction %q: %w", name, err)
			}
			ic.subscribed = true
			ic.subscribedKey = key
		}
	}

	if wantPub && !ic.published {
		c.log.WithField("interaction_class", name).Debug("Publishing interaction class")
		if err := c.ctx.Ambassador.PublishInteractionClass(ic.handle); err != nil {
			return fmt.Errorf("publish interaction %q: %w", name, err)
		}
		ic.published = true
	}
	if !wantPub && ic.published {
		if err := c.ctx.Ambassador.UnpublishInteractionClass(ic.handle); err != nil {
			return fmt.Errorf("unpublish interaction %q: %w", name, err)
		}
		ic.published = false
	}
	return nil
}

// syncAll регистрирует в RTI все классы, на которые ссылаются маппинги.
func (c *Component) syncAll() error {
	seen := make(map[string]bool)
	for _, m := range c.objectOrder {
		if seen[m.ObjectClassName] {
			continue
		}
		seen[m.ObjectClassName] = true
		if err := c.syncObjectClass(m.ObjectClassName); err != nil {
			return err
		}
	}
	seen = make(map[string]bool)
	for _, m := range c.interactionOrder {
		if seen[m.InteractionName] {
			continue
		}
		seen[m.InteractionName] = true
		if err := c.syncInteractionClass(m.InteractionName); err != nil {
			return err
		}
	}
	return nil
}

// SubscribedAttributes возвращает атрибуты класса, подписанные компонентом, по алфавиту.
func (c *Component) SubscribedAttributes(className string) []string {
	oc, ok := c.wire.classes[className]
	if !ok {
		return nil
	}
	set := make(map[string]bool)
	for _, attrs := range oc.subscribed {
		for n := range attrs {
			set[n] = true
		}
	}
	return sortedKeys(set)
}

// PublishedAttributes возвращает атрибуты класса, опубликованные компонентом, по алфавиту.
func (c *Component) PublishedAttributes(className string) []string {
	oc, ok := c.wire.classes[className]
	if !ok {
		return nil
	}
	return sortedKeys(oc.published)
}

func diff(want, have map[string]bool) (add, remove []string) {
	for n := range want {
		if !have[n] {
			add = append(add, n)
		}
	}
	for n := range have {
		if !want[n] {
			remove = append(remove, n)
		}
	}
	sort.Strings(add)
	sort.Strings(remove)
	return add, remove
}

func unionKeys(a, b map[string]map[string]bool) []string {
	set := make(map[string]bool, len(a)+len(b))
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
