package rti

import (
	"fmt"
	"sync"
)

// Update - обновление атрибутов, отправленное локальным федератом.
type Update struct {
	Handle ObjectInstanceHandle
	Class  string
	Name   string
	Attrs  map[string][]byte
	Tag    []byte
}

// SentInteraction - взаимодействие, отправленное локальным федератом.
type SentInteraction struct {
	Class  string
	Params map[string][]byte
	Tag    []byte
}

// RegionStats - счётчики вызовов DDM.
type RegionStats struct {
	Created   int
	Committed int
	Deleted   int
}

type instance struct {
	class ObjectClassHandle
	name  string
	local bool
}

type region struct {
	dims   []DimensionHandle
	bounds map[DimensionHandle]Bounds
}

type handleSpace[H ~uint32] struct {
	byName map[string]H
	names  map[H]string
}

func newHandleSpace[H ~uint32]() handleSpace[H] {
	return handleSpace[H]{byName: make(map[string]H), names: make(map[H]string)}
}

func (s *handleSpace[H]) get(name string) H {
	if h, ok := s.byName[name]; ok {
		return h
	}
	h := H(len(s.byName) + 1)
	s.byName[name] = h
	s.names[h] = name
	return h
}

// LocalAmbassador - внутрипроцессная реализация Ambassador.
//
// Хэндлы выдаются лениво по именам. Обратные вызовы (резервирование имён,
// объекты и взаимодействия "удалённых" федератов) ставятся в очередь и
// доставляются только из Tick, как у настоящего RTI. Все вызовы Ambassador
// записываются и доступны для инспекции.
type LocalAmbassador struct {
	mu sync.Mutex

	federation string
	federate   string
	callbacks  FederateAmbassador

	classes      handleSpace[ObjectClassHandle]
	attributes   map[ObjectClassHandle]*handleSpace[AttributeHandle]
	interactions handleSpace[InteractionClassHandle]
	parameters   map[InteractionClassHandle]*handleSpace[ParameterHandle]
	dimensions   handleSpace[DimensionHandle]

	subscribed        map[ObjectClassHandle]map[AttributeHandle]int
	published         map[ObjectClassHandle]map[AttributeHandle]bool
	interactionSubs   map[InteractionClassHandle]int
	interactionPubs   map[InteractionClassHandle]bool
	regionSubscribers map[RegionHandle]map[regionUse]bool

	reserved   map[string]bool
	rejectName map[string]bool
	instances  map[ObjectInstanceHandle]*instance
	nextObject ObjectInstanceHandle

	regions    map[RegionHandle]*region
	nextRegion RegionHandle
	stats      RegionStats

	updates []Update
	deletes []ObjectInstanceHandle
	sent    []SentInteraction

	queue []func(FederateAmbassador)
}

func NewLocalAmbassador() *LocalAmbassador {
	return &LocalAmbassador{
		classes:           newHandleSpace[ObjectClassHandle](),
		attributes:        make(map[ObjectClassHandle]*handleSpace[AttributeHandle]),
		interactions:      newHandleSpace[InteractionClassHandle](),
		parameters:        make(map[InteractionClassHandle]*handleSpace[ParameterHandle]),
		dimensions:        newHandleSpace[DimensionHandle](),
		subscribed:        make(map[ObjectClassHandle]map[AttributeHandle]int),
		published:         make(map[ObjectClassHandle]map[AttributeHandle]bool),
		interactionSubs:   make(map[InteractionClassHandle]int),
		interactionPubs:   make(map[InteractionClassHandle]bool),
		regionSubscribers: make(map[RegionHandle]map[regionUse]bool),
		reserved:          make(map[string]bool),
		rejectName:        make(map[string]bool),
		instances:         make(map[ObjectInstanceHandle]*instance),
		regions:           make(map[RegionHandle]*region),
	}
}

func (a *LocalAmbassador) JoinFederation(federation, federate string, callbacks FederateAmbassador) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.callbacks != nil {
		return fmt.Errorf("%w: already joined federation %q", ErrNetwork, a.federation)
	}
	if federation == "" || federate == "" || callbacks == nil {
		return fmt.Errorf("%w: federation, federate name and callbacks are required", ErrNetwork)
	}
	a.federation, a.federate, a.callbacks = federation, federate, callbacks
	return nil
}

func (a *LocalAmbassador) ResignFederation() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.callbacks == nil {
		return fmt.Errorf("%w: not joined", ErrNetwork)
	}
	a.callbacks = nil
	a.federation, a.federate = "", ""
	a.queue = nil
	a.subscribed = make(map[ObjectClassHandle]map[AttributeHandle]int)
	a.published = make(map[ObjectClassHandle]map[AttributeHandle]bool)
	a.interactionSubs = make(map[InteractionClassHandle]int)
	a.interactionPubs = make(map[InteractionClassHandle]bool)
	a.regionSubscribers = make(map[RegionHandle]map[regionUse]bool)
	return nil
}

// Joined сообщает, подключён ли федерат.
func (a *LocalAmbassador) Joined() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.callbacks != nil
}

func (a *LocalAmbassador) Tick() error {
	a.mu.Lock()
	queue := a.queue
	a.queue = nil
	cb := a.callbacks
	a.mu.Unlock()

	if cb == nil {
		return nil
	}
	for _, deliver := range queue {
		deliver(cb)
	}
	return nil
}

// Pending возвращает количество недоставленных обратных вызовов.
func (a *LocalAmbassador) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

func (a *LocalAmbassador) enqueue(f func(FederateAmbassador)) {
	a.queue = append(a.queue, f)
}

func (a *LocalAmbassador) ObjectClassHandle(name string) (ObjectClassHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty object class name", ErrNetwork)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.classes.get(name), nil
}

func (a *LocalAmbassador) ObjectClassName(h ObjectClassHandle) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	name, ok := a.classes.names[h]
	if !ok {
		return "", fmt.Errorf("%w: unknown object class handle %d", ErrNetwork, h)
	}
	return name, nil
}

func (a *LocalAmbassador) attrSpace(class ObjectClassHandle) (*handleSpace[AttributeHandle], error) {
	if _, ok := a.classes.names[class]; !ok {
		return nil, fmt.Errorf("%w: unknown object class handle %d", ErrNetwork, class)
	}
	s, ok := a.attributes[class]
	if !ok {
		space := newHandleSpace[AttributeHandle]()
		s = &space
		a.attributes[class] = s
	}
	return s, nil
}

func (a *LocalAmbassador) AttributeHandle(class ObjectClassHandle, name string) (AttributeHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty attribute name", ErrNetwork)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.attrSpace(class)
	if err != nil {
		return 0, err
	}
	return s.get(name), nil
}

func (a *LocalAmbassador) AttributeName(class ObjectClassHandle, h AttributeHandle) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.attrSpace(class)
	if err != nil {
		return "", err
	}
	name, ok := s.names[h]
	if !ok {
		return "", fmt.Errorf("%w: unknown attribute handle %d", ErrNetwork, h)
	}
	return name, nil
}

func (a *LocalAmbassador) InteractionClassHandle(name string) (InteractionClassHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty interaction class name", ErrNetwork)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interactions.get(name), nil
}

func (a *LocalAmbassador) InteractionClassName(h InteractionClassHandle) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	name, ok := a.interactions.names[h]
	if !ok {
		return "", fmt.Errorf("%w: unknown interaction class handle %d", ErrNetwork, h)
	}
	return name, nil
}

func (a *LocalAmbassador) paramSpace(class InteractionClassHandle) (*handleSpace[ParameterHandle], error) {
	if _, ok := a.interactions.names[class]; !ok {
		return nil, fmt.Errorf("%w: unknown interaction class handle %d", ErrNetwork, class)
	}
	s, ok := a.parameters[class]
	if !ok {
		space := newHandleSpace[ParameterHandle]()
		s = &space
		a.parameters[class] = s
	}
	return s, nil
}

func (a *LocalAmbassador) ParameterHandle(class InteractionClassHandle, name string) (ParameterHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty parameter name", ErrNetwork)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.paramSpace(class)
	if err != nil {
		return 0, err
	}
	return s.get(name), nil
}

func (a *LocalAmbassador) ParameterName(class InteractionClassHandle, h ParameterHandle) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.paramSpace(class)
	if err != nil {
		return "", err
	}
	name, ok := s.names[h]
	if !ok {
		return "", fmt.Errorf("%w: unknown parameter handle %d", ErrNetwork, h)
	}
	return name, nil
}

func (a *LocalAmbassador) DimensionHandle(name string) (DimensionHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty dimension name", ErrNetwork)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dimensions.get(name), nil
}
