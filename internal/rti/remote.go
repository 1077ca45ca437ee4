package rti

import "fmt"

// Методы этого файла имитируют другие федераты: создают удалённые объекты и
// взаимодействия. Обратные вызовы доставляются на следующем Tick и только
// для подписанных классов и атрибутов.

// DiscoverRemote регистрирует удалённый объект и ставит в очередь его обнаружение.
func (a *LocalAmbassador) DiscoverRemote(className, name string) (ObjectInstanceHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return 0, err
	}
	if className == "" {
		return 0, fmt.Errorf("%w: empty object class name", ErrNetwork)
	}

	class := a.classes.get(className)
	h := a.newInstance(class, name, false)
	instName := a.instances[h].name

	if len(a.subscribed[class]) > 0 {
		a.enqueue(func(cb FederateAmbassador) { cb.DiscoverObjectInstance(h, class, instName) })
	}
	return h, nil
}

// ReflectRemote ставит в очередь обновление атрибутов удалённого объекта.
// Атрибуты без подписки отбрасываются.
func (a *LocalAmbassador) ReflectRemote(h ObjectInstanceHandle, attrs map[string][]byte, tag []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	inst, ok := a.instances[h]
	if !ok || inst.local {
		return fmt.Errorf("%w: %d is not a remote object instance", ErrNetwork, h)
	}

	space, _ := a.attrSpace(inst.class)
	values := make(AttributeValueMap, len(attrs))
	for name, v := range attrs {
		ah := space.get(name)
		if a.subscribed[inst.class][ah] > 0 {
			values[ah] = append([]byte(nil), v...)
		}
	}
	if len(values) == 0 {
		return nil
	}

	tagCopy := append([]byte(nil), tag...)
	a.enqueue(func(cb FederateAmbassador) { cb.ReflectAttributeValues(h, values, tagCopy) })
	return nil
}

// RemoveRemote удаляет удалённый объект.
func (a *LocalAmbassador) RemoveRemote(h ObjectInstanceHandle, tag []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	inst, ok := a.instances[h]
	if !ok || inst.local {
		return fmt.Errorf("%w: %d is not a remote object instance", ErrNetwork, h)
	}
	delete(a.instances, h)

	if len(a.subscribed[inst.class]) > 0 {
		tagCopy := append([]byte(nil), tag...)
		a.enqueue(func(cb FederateAmbassador) { cb.RemoveObjectInstance(h, tagCopy) })
	}
	return nil
}

// SendRemoteInteraction ставит в очередь взаимодействие от другого федерата.
func (a *LocalAmbassador) SendRemoteInteraction(className string, params map[string][]byte, tag []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	class := a.interactions.get(className)
	if a.interactionSubs[class] == 0 {
		return nil
	}

	space, _ := a.paramSpace(class)
	values := make(ParameterValueMap, len(params))
	for name, v := range params {
		values[space.get(name)] = append([]byte(nil), v...)
	}
	tagCopy := append([]byte(nil), tag...)
	a.enqueue(func(cb FederateAmbassador) { cb.ReceiveInteraction(class, values, tagCopy) })
	return nil
}

// RequestAttributeUpdate просит владельца локального объекта прислать атрибуты.
func (a *LocalAmbassador) RequestAttributeUpdate(h ObjectInstanceHandle, names ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireJoined(); err != nil {
		return err
	}
	inst, ok := a.instances[h]
	if !ok || !inst.local {
		return fmt.Errorf("%w: %d is not a local object instance", ErrNetwork, h)
	}

	space, _ := a.attrSpace(inst.class)
	handles := make([]AttributeHandle, 0, len(names))
	for _, name := range names {
		handles = append(handles, space.get(name))
	}
	a.enqueue(func(cb FederateAmbassador) { cb.ProvideAttributeValueUpdate(h, handles) })
	return nil
}
