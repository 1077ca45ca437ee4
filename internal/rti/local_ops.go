package rti

import (
	"fmt"
	"sort"
)

func (a *LocalAmbassador) requireJoined() error {
	if a.callbacks == nil {
		return fmt.Errorf("%w: federate is not joined", ErrNetwork)
	}
	return nil
}

// regionUse - подписка, ссылающаяся на регион: атрибут класса объектов или
// класс взаимодействий (attr == 0, interaction == true).
type regionUse struct {
	interaction bool
	class       uint32
	attr        uint32
}

func (a *LocalAmbassador) useRegions(regions []RegionHandle, uses []regionUse) {
	for _, r := range regions {
		set, ok := a.regionSubscribers[r]
		if !ok {
			set = make(map[regionUse]bool)
			a.regionSubscribers[r] = set
		}
		for _, u := range uses {
			set[u] = true
		}
	}
}

func (a *LocalAmbassador) releaseRegions(regions []RegionHandle, uses []regionUse) {
	for _, r := range regions {
		set := a.regionSubscribers[r]
		for _, u := range uses {
			delete(set, u)
		}
	}
}

func attributeUses(class ObjectClassHandle, attrs []AttributeHandle) []regionUse {
	out := make([]regionUse, 0, len(attrs))
	for _, h := range attrs {
		out = append(out, regionUse{class: uint32(class), attr: uint32(h)})
	}
	return out
}

func (a *LocalAmbassador) checkRegions(regions []RegionHandle) error {
	for _, r := range regions {
		if _, ok := a.regions[r]; !ok {
			return fmt.Errorf("%w: unknown region %d", ErrNetwork, r)
		}
	}
	return nil
}

func (a *LocalAmbassador) SubscribeObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle, regions ...RegionHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	if _, err := a.attrSpace(class); err != nil {
		return err
	}
	if err := a.checkRegions(regions); err != nil {
		return err
	}

	set, ok := a.subscribed[class]
	if !ok {
		set = make(map[AttributeHandle]int)
		a.subscribed[class] = set
	}
	for _, h := range attrs {
		set[h]++
	}
	a.useRegions(regions, attributeUses(class, attrs))
	return nil
}

func (a *LocalAmbassador) UnsubscribeObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle, regions ...RegionHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	set := a.subscribed[class]
	for _, h := range attrs {
		if set[h] <= 1 {
			delete(set, h)
		} else {
			set[h]--
		}
	}
	if len(set) == 0 {
		delete(a.subscribed, class)
	}
	a.releaseRegions(regions, attributeUses(class, attrs))
	return nil
}

func (a *LocalAmbassador) PublishObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	if _, err := a.attrSpace(class); err != nil {
		return err
	}
	set, ok := a.published[class]
	if !ok {
		set = make(map[AttributeHandle]bool)
		a.published[class] = set
	}
	for _, h := range attrs {
		set[h] = true
	}
	return nil
}

func (a *LocalAmbassador) UnpublishObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	set := a.published[class]
	for _, h := range attrs {
		delete(set, h)
	}
	if len(set) == 0 {
		delete(a.published, class)
	}
	return nil
}

func (a *LocalAmbassador) SubscribeInteractionClass(class InteractionClassHandle, regions ...RegionHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	if _, ok := a.interactions.names[class]; !ok {
		return fmt.Errorf("%w: unknown interaction class handle %d", ErrNetwork, class)
	}
	if err := a.checkRegions(regions); err != nil {
		return err
	}
	a.interactionSubs[class]++
	a.useRegions(regions, []regionUse{{interaction: true, class: uint32(class)}})
	return nil
}

func (a *LocalAmbassador) UnsubscribeInteractionClass(class InteractionClassHandle, regions ...RegionHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	if a.interactionSubs[class] <= 1 {
		delete(a.interactionSubs, class)
	} else {
		a.interactionSubs[class]--
	}
	a.releaseRegions(regions, []regionUse{{interaction: true, class: uint32(class)}})
	return nil
}

func (a *LocalAmbassador) PublishInteractionClass(class InteractionClassHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	if _, ok := a.interactions.names[class]; !ok {
		return fmt.Errorf("%w: unknown interaction class handle %d", ErrNetwork, class)
	}
	a.interactionPubs[class] = true
	return nil
}

func (a *LocalAmbassador) UnpublishInteractionClass(class InteractionClassHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	delete(a.interactionPubs, class)
	return nil
}

// RejectName заставляет резервирование имени завершиться неудачей.
func (a *LocalAmbassador) RejectName(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejectName[name] = true
}

func (a *LocalAmbassador) ReserveObjectInstanceName(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: empty object instance name", ErrNetwork)
	}

	if a.rejectName[name] || a.reserved[name] {
		a.enqueue(func(cb FederateAmbassador) { cb.ObjectInstanceNameReservationFailed(name) })
		return nil
	}
	a.reserved[name] = true
	a.enqueue(func(cb FederateAmbassador) { cb.ObjectInstanceNameReservationSucceeded(name) })
	return nil
}

func (a *LocalAmbassador) RegisterObjectInstance(class ObjectClassHandle, name string) (ObjectInstanceHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return 0, err
	}
	if _, ok := a.classes.names[class]; !ok {
		return 0, fmt.Errorf("%w: unknown object class handle %d", ErrNetwork, class)
	}
	for _, inst := range a.instances {
		if name != "" && inst.name == name {
			return 0, fmt.Errorf("%w: object instance name %q in use", ErrNetwork, name)
		}
	}
	return a.newInstance(class, name, true), nil
}

func (a *LocalAmbassador) newInstance(class ObjectClassHandle, name string, local bool) ObjectInstanceHandle {
	a.nextObject++
	h := a.nextObject
	if name == "" {
		name = fmt.Sprintf("HLAobject%d", h)
	}
	a.instances[h] = &instance{class: class, name: name, local: local}
	return h
}

func (a *LocalAmbassador) UpdateAttributeValues(h ObjectInstanceHandle, attrs AttributeValueMap, tag []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	inst, ok := a.instances[h]
	if !ok || !inst.local {
		return fmt.Errorf("%w: object instance %d is not owned by this federate", ErrNetwork, h)
	}

	space, _ := a.attrSpace(inst.class)
	byName := make(map[string][]byte, len(attrs))
	for ah, v := range attrs {
		name, ok := space.names[ah]
		if !ok {
			return fmt.Errorf("%w: unknown attribute handle %d", ErrNetwork, ah)
		}
		if !a.published[inst.class][ah] {
			return fmt.Errorf("%w: attribute %q is not published", ErrNetwork, name)
		}
		byName[name] = append([]byte(nil), v...)
	}

	a.updates = append(a.updates, Update{
		Handle: h,
		Class:  a.classes.names[inst.class],
		Name:   inst.name,
		Attrs:  byName,
		Tag:    append([]byte(nil), tag...),
	})
	return nil
}

func (a *LocalAmbassador) DeleteObjectInstance(h ObjectInstanceHandle, _ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	inst, ok := a.instances[h]
	if !ok || !inst.local {
		return fmt.Errorf("%w: object instance %d is not owned by this federate", ErrNetwork, h)
	}
	delete(a.instances, h)
	delete(a.reserved, inst.name)
	a.deletes = append(a.deletes, h)
	return nil
}

func (a *LocalAmbassador) SendInteraction(class InteractionClassHandle, params ParameterValueMap, tag []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	if !a.interactionPubs[class] {
		return fmt.Errorf("%w: interaction class %d is not published", ErrNetwork, class)
	}

	space, _ := a.paramSpace(class)
	byName := make(map[string][]byte, len(params))
	for ph, v := range params {
		name, ok := space.names[ph]
		if !ok {
			return fmt.Errorf("%w: unknown parameter handle %d", ErrNetwork, ph)
		}
		byName[name] = append([]byte(nil), v...)
	}
	a.sent = append(a.sent, SentInteraction{
		Class:  a.interactions.names[class],
		Params: byName,
		Tag:    append([]byte(nil), tag...),
	})
	return nil
}

func (a *LocalAmbassador) CreateRegion(dims []DimensionHandle) (RegionHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return 0, err
	}
	if len(dims) == 0 {
		return 0, fmt.Errorf("%w: region without dimensions", ErrNetwork)
	}
	for _, d := range dims {
		if _, ok := a.dimensions.names[d]; !ok {
			return 0, fmt.Errorf("%w: unknown dimension %d", ErrNetwork, d)
		}
	}

	a.nextRegion++
	a.regions[a.nextRegion] = &region{
		dims:   append([]DimensionHandle(nil), dims...),
		bounds: make(map[DimensionHandle]Bounds),
	}
	a.stats.Created++
	return a.nextRegion, nil
}

func (a *LocalAmbassador) SetRangeBounds(r RegionHandle, dim DimensionHandle, b Bounds) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	reg, ok := a.regions[r]
	if !ok {
		return fmt.Errorf("%w: unknown region %d", ErrNetwork, r)
	}
	known := false
	for _, d := range reg.dims {
		if d == dim {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: dimension %d is not part of region %d", ErrNetwork, dim, r)
	}
	if b.Lower > b.Upper {
		return fmt.Errorf("%w: invalid range [%d, %d]", ErrNetwork, b.Lower, b.Upper)
	}
	reg.bounds[dim] = b
	return nil
}

func (a *LocalAmbassador) CommitRegionModifications(regions []RegionHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkRegions(regions); err != nil {
		return err
	}
	a.stats.Committed += len(regions)
	return nil
}

func (a *LocalAmbassador) DeleteRegion(r RegionHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.regions[r]; !ok {
		return fmt.Errorf("%w: unknown region %d", ErrNetwork, r)
	}
	if len(a.regionSubscribers[r]) > 0 {
		return fmt.Errorf("%w: region %d is in use", ErrNetwork, r)
	}
	delete(a.regions, r)
	delete(a.regionSubscribers, r)
	a.stats.Deleted++
	return nil
}

// Region возвращает границы региона по именам измерений.
func (a *LocalAmbassador) Region(r RegionHandle) (map[string]Bounds, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	reg, ok := a.regions[r]
	if !ok {
		return nil, false
	}
	out := make(map[string]Bounds, len(reg.bounds))
	for d, b := range reg.bounds {
		out[a.dimensions.names[d]] = b
	}
	return out, true
}

// RegionCount возвращает количество существующих регионов.
func (a *LocalAmbassador) RegionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.regions)
}

// RegionStats возвращает счётчики вызовов DDM.
func (a *LocalAmbassador) RegionStats() RegionStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// SubscribedAttributes возвращает имена подписанных атрибутов класса по алфавиту.
func (a *LocalAmbassador) SubscribedAttributes(className string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attributeNames(className, func(class ObjectClassHandle, h AttributeHandle) bool {
		return a.subscribed[class][h] > 0
	})
}

// PublishedAttributes возвращает имена опубликованных атрибутов класса по алфавиту.
func (a *LocalAmbassador) PublishedAttributes(className string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attributeNames(className, func(class ObjectClassHandle, h AttributeHandle) bool {
		return a.published[class][h]
	})
}

func (a *LocalAmbassador) attributeNames(className string, keep func(ObjectClassHandle, AttributeHandle) bool) []string {
	class, ok := a.classes.byName[className]
	if !ok {
		return nil
	}
	space, ok := a.attributes[class]
	if !ok {
		return nil
	}
	var out []string
	for h, name := range space.names {
		if keep(class, h) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// InteractionSubscribed сообщает, подписан ли класс взаимодействия.
func (a *LocalAmbassador) InteractionSubscribed(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.interactions.byName[name]
	return ok && a.interactionSubs[h] > 0
}

// InteractionPublished сообщает, опубликован ли класс взаимодействия.
func (a *LocalAmbassador) InteractionPublished(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.interactions.byName[name]
	return ok && a.interactionPubs[h]
}

// Updates возвращает отправленные обновления атрибутов.
func (a *LocalAmbassador) Updates() []Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Update(nil), a.updates...)
}

// Deletes возвращает удалённые локальные объекты.
func (a *LocalAmbassador) Deletes() []ObjectInstanceHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ObjectInstanceHandle(nil), a.deletes...)
}

// Interactions возвращает отправленные взаимодействия.
func (a *LocalAmbassador) Interactions() []SentInteraction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]SentInteraction(nil), a.sent...)
}

// InstanceName возвращает имя зарегистрированного объекта.
func (a *LocalAmbassador) InstanceName(h ObjectInstanceHandle) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	inst, ok := a.instances[h]
	if !ok {
		return "", false
	}
	return inst.name, true
}
