package rti

import (
	"errors"
	"sort"
)

// ErrNetwork - ошибка RTI на некорректных аргументах вызова.
var ErrNetwork = errors.New("rti error")

// Хэндлы RTI. Нулевое значение означает "нет хэндла".
type (
	ObjectClassHandle      uint32
	AttributeHandle        uint32
	InteractionClassHandle uint32
	ParameterHandle        uint32
	ObjectInstanceHandle   uint64
	DimensionHandle        uint32
	RegionHandle           uint32
)

// AttributeValueMap - значения атрибутов обновления объекта.
type AttributeValueMap map[AttributeHandle][]byte

// ParameterValueMap - значения параметров взаимодействия.
type ParameterValueMap map[ParameterHandle][]byte

// SortedHandles возвращает хэндлы атрибутов по возрастанию.
func (m AttributeValueMap) SortedHandles() []AttributeHandle {
	out := make([]AttributeHandle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedHandles возвращает хэндлы параметров по возрастанию.
func (m ParameterValueMap) SortedHandles() []ParameterHandle {
	out := make([]ParameterHandle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bounds - диапазон значений по одному измерению региона.
type Bounds struct {
	Lower uint32
	Upper uint32
}

// Ambassador - вызовы к RTI, нужные шлюзу.
//
// Вызовы синхронны с точки зрения шлюза (fire-and-forget). Ошибки на
// некорректных аргументах оборачивают ErrNetwork.
type Ambassador interface {
	JoinFederation(federation, federate string, callbacks FederateAmbassador) error
	ResignFederation() error
	// Tick отдаёт накопленные обратные вызовы федерату.
	Tick() error

	ObjectClassHandle(name string) (ObjectClassHandle, error)
	ObjectClassName(h ObjectClassHandle) (string, error)
	AttributeHandle(class ObjectClassHandle, name string) (AttributeHandle, error)
	AttributeName(class ObjectClassHandle, h AttributeHandle) (string, error)
	InteractionClassHandle(name string) (InteractionClassHandle, error)
	InteractionClassName(h InteractionClassHandle) (string, error)
	ParameterHandle(class InteractionClassHandle, name string) (ParameterHandle, error)
	ParameterName(class InteractionClassHandle, h ParameterHandle) (string, error)
	DimensionHandle(name string) (DimensionHandle, error)

	SubscribeObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle, regions ...RegionHandle) error
	UnsubscribeObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle, regions ...RegionHandle) error
	PublishObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle) error
	UnpublishObjectClassAttributes(class ObjectClassHandle, attrs []AttributeHandle) error
	SubscribeInteractionClass(class InteractionClassHandle, regions ...RegionHandle) error
	UnsubscribeInteractionClass(class InteractionClassHandle, regions ...RegionHandle) error
	PublishInteractionClass(class InteractionClassHandle) error
	UnpublishInteractionClass(class InteractionClassHandle) error

	ReserveObjectInstanceName(name string) error
	RegisterObjectInstance(class ObjectClassHandle, name string) (ObjectInstanceHandle, error)
	UpdateAttributeValues(h ObjectInstanceHandle, attrs AttributeValueMap, tag []byte) error
	DeleteObjectInstance(h ObjectInstanceHandle, tag []byte) error
	SendInteraction(class InteractionClassHandle, params ParameterValueMap, tag []byte) error

	CreateRegion(dims []DimensionHandle) (RegionHandle, error)
	SetRangeBounds(r RegionHandle, dim DimensionHandle, b Bounds) error
	CommitRegionModifications(regions []RegionHandle) error
	DeleteRegion(r RegionHandle) error
}

// FederateAmbassador - обратные вызовы RTI, которые реализует шлюз.
type FederateAmbassador interface {
	DiscoverObjectInstance(h ObjectInstanceHandle, class ObjectClassHandle, name string)
	ReflectAttributeValues(h ObjectInstanceHandle, attrs AttributeValueMap, tag []byte)
	RemoveObjectInstance(h ObjectInstanceHandle, tag []byte)
	ReceiveInteraction(class InteractionClassHandle, params ParameterValueMap, tag []byte)
	ProvideAttributeValueUpdate(h ObjectInstanceHandle, attrs []AttributeHandle)
	ObjectInstanceNameReservationSucceeded(name string)
	ObjectInstanceNameReservationFailed(name string)
}
