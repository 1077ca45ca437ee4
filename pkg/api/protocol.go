package api

import (
	"encoding/json"
)

// --- СЕРВЕР -> НАБЛЮДАТЕЛЬ ---

// StreamMessage - кадр потока /ws: одно внутреннее сообщение, которое шлюз
// доставил в симуляцию, или ответ на команду наблюдателя.
type StreamMessage struct {
	// Type тип внутреннего сообщения (INFO_ACTOR_UPDATED, WEAPON_FIRE, ...)
	// или служебный тип кадра (RESULT, ERROR).
	Type string `json:"type"`

	// Tick номер локального тика сессии в момент доставки.
	Tick uint64 `json:"tick"`

	AboutActorID   string `json:"aboutActorId,omitempty"`
	SendingActorID string `json:"sendingActorId,omitempty"`
	ActorType      string `json:"actorType,omitempty"`
	Name           string `json:"name,omitempty"`

	// Source имя маппинга, который создал сообщение.
	Source string `json:"source,omitempty"`

	Params []ParamView `json:"params,omitempty"`

	// Text текст результата или ошибки для служебных кадров.
	Text string `json:"text,omitempty"`
}

// ParamView - параметр сообщения или свойство актора в текстовом виде.
type ParamView struct {
	Name  string `json:"name"`
	Type  string `json:"type"` // bool, int, uint, float, double, string, enum, vec3, actor
	Value string `json:"value"`
}

// LogEntry - запись журнала событий сессии.
type LogEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Type      string `json:"type"`      // FEDERATION, OBJECT, INTERACTION, ERROR
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// --- ИНСПЕКЦИЯ (/debug/*) ---

// SessionView - сводка состояния сессии.
type SessionView struct {
	Federation   string `json:"federation,omitempty"`
	Federate     string `json:"federate,omitempty"`
	Connected    bool   `json:"connected"`
	DDMEnabled   bool   `json:"ddmEnabled"`
	Tick         uint64 `json:"tick"`
	Actors       int    `json:"actors"`
	Objects      int    `json:"objects"`
	Queued       int    `json:"queuedRegistrations"`
	Observers    int    `json:"observers"`
	ObjectMaps   int    `json:"objectMappings"`
	MessageMaps  int    `json:"interactionMappings"`
	CatalogTypes int    `json:"messageTypes"`
}

// ActorView - актор хранилища сессии.
type ActorView struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Name   string      `json:"name,omitempty"`
	Remote bool        `json:"remote"`
	Props  []ParamView `json:"props,omitempty"`
}

// ObjectView - живое соответствие объекта федерации и актора.
type ObjectView struct {
	Handle   uint64 `json:"handle"`
	Name     string `json:"name,omitempty"`
	ActorID  string `json:"actorId"`
	Mapping  string `json:"mapping,omitempty"`
	Local    bool   `json:"local"`
	EntityID string `json:"entityId,omitempty"`
	Pending  bool   `json:"pending"`
}

// MappingView - краткое описание маппинга.
type MappingView struct {
	Name       string `json:"name"`
	Class      string `json:"class"`
	ActorType  string `json:"actorType,omitempty"`
	Message    string `json:"message,omitempty"`
	EntityType string `json:"entityType,omitempty"`
	Direction  string `json:"direction"`
	Fields     int    `json:"fields"`
}

// RegionView - регион DDM, которым владеет шлюз.
type RegionView struct {
	Calculator string            `json:"calculator"`
	Name       string            `json:"name"`
	Handle     uint32            `json:"handle"`
	Dimensions []DimensionBounds `json:"dimensions"`
}

// DimensionBounds - границы региона по одному измерению.
type DimensionBounds struct {
	Name string `json:"name"`
	Min  uint32 `json:"min"`
	Max  uint32 `json:"max"`
}

// --- НАБЛЮДАТЕЛЬ -> СЕРВЕР ---

// ClientCommand это объект, который наблюдатель /ws отправляет серверу.
type ClientCommand struct {
	// Action команда: INTEREST, ACTOR, DELETE, MESSAGE, UNLOAD.
	Action string `json:"action"`

	// Payload содержит данные, специфичные для команды.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InterestPayload - новая точка интереса для DDM.
type InterestPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ActorPayload - создание или обновление локального актора.
type ActorPayload struct {
	// ActorID пустой для нового актора.
	ActorID   string      `json:"actorId,omitempty"`
	ActorType string      `json:"actorType"`
	Name      string      `json:"name,omitempty"`
	Props     []ParamView `json:"props,omitempty"`
}

// ActorRefPayload - ссылка на актора (удаление).
type ActorRefPayload struct {
	ActorID string `json:"actorId"`
}

// MessagePayload - пользовательское сообщение из каталога (уходит взаимодействием).
type MessagePayload struct {
	Type           string      `json:"type"`
	AboutActorID   string      `json:"aboutActorId,omitempty"`
	SendingActorID string      `json:"sendingActorId,omitempty"`
	Params         []ParamView `json:"params,omitempty"`
}
