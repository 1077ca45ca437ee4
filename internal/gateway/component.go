package gateway

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/ddm"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/objects"
	"hla-gateway/internal/rti"
	"hla-gateway/internal/translator"
	"hla-gateway/pkg/logger"
)

// Dispatcher доставляет сообщения, полученные из федерации, в симуляцию.
type Dispatcher interface {
	SendMessage(msg *domain.Message)
}

// ActorRepository даёт доступ к локальным акторам симуляции.
type ActorRepository interface {
	FindActor(id uuid.UUID) (*domain.Actor, bool)
}

// Context - внешние зависимости компонента. Передаётся явно владельцем сессии.
type Context struct {
	Ambassador  rti.Ambassador
	Dispatcher  Dispatcher
	Actors      ActorRepository
	Translators *translator.Registry
	Messages    *domain.MessageCatalog
	Log         *logrus.Entry
}

// Options - настройки компонента.
type Options struct {
	// SiteID и ApplicationID образуют EntityIdentifier локальных акторов.
	SiteID        uint16
	ApplicationID uint16
	// ReserveNames включает резервирование имени перед регистрацией объекта.
	ReserveNames bool
}

// Component - шлюз между федерацией HLA и моделью акторов и сообщений.
//
// Компонент не синхронизирован: все вызовы, включая обратные вызовы RTI,
// должны приходить последовательно из одного цикла сессии.
type Component struct {
	ctx  Context
	opts Options
	log  *logrus.Entry

	// Локальные (LOCAL_ONLY и LOCAL_AND_REMOTE) маппинги по типу актора.
	actorMappings map[domain.ActorType]*mapping.ObjectToActor
	// Удалённые маппинги по имени класса в порядке регистрации.
	objectMappings map[string][]*mapping.ObjectToActor
	objectOrder    []*mapping.ObjectToActor

	messageMappings     map[domain.MessageType]*mapping.InteractionToMessage
	interactionMappings map[string]*mapping.InteractionToMessage
	interactionOrder    []*mapping.InteractionToMessage

	connected  bool
	federation string
	federate   string
	wire       *wireState

	runtime  *objects.RuntimeMappingInfo
	regQueue map[uuid.UUID][]*domain.Message
	// nextEntity - последний выданный номер сущности для EntityIdentifier.
	nextEntity uint16

	ddmEnabled bool
	subCalcs   ddm.CalculatorGroup
	pubCalcs   ddm.CalculatorGroup
	subRegions map[string][]ddm.RegionData
}

// New создаёт компонент. Пустой реестр трансляторов заменяется эталонным RPR.
func New(ctx Context, opts Options) *Component {
	if ctx.Translators == nil || ctx.Translators.Len() == 0 {
		ctx.Translators = translator.NewRegistry(translator.NewRPRTranslator())
	}
	if ctx.Messages == nil {
		ctx.Messages = domain.NewMessageCatalog()
	}
	if ctx.Log == nil {
		ctx.Log = logger.For("gateway")
	}

	c := &Component{
		ctx:                 ctx,
		opts:                opts,
		log:                 ctx.Log,
		actorMappings:       make(map[domain.ActorType]*mapping.ObjectToActor),
		objectMappings:      make(map[string][]*mapping.ObjectToActor),
		messageMappings:     make(map[domain.MessageType]*mapping.InteractionToMessage),
		interactionMappings: make(map[string]*mapping.InteractionToMessage),
		runtime:             objects.NewRuntimeMappingInfo(),
		regQueue:            make(map[uuid.UUID][]*domain.Message),
		subRegions:          make(map[string][]ddm.RegionData),
	}
	c.wire = newWireState()
	return c
}

// IsConnected сообщает, подключён ли компонент к федерации.
func (c *Component) IsConnected() bool { return c.connected }

// Federation возвращает имена федерации и федерата текущего подключения.
func (c *Component) Federation() (federation, federate string) {
	return c.federation, c.federate
}

// Runtime возвращает таблицу живых соответствий для чтения.
func (c *Component) Runtime() *objects.RuntimeMappingInfo { return c.runtime }

// Translators возвращает реестр трансляторов параметров.
func (c *Component) Translators() *translator.Registry { return c.ctx.Translators }

// Messages возвращает каталог сообщений.
func (c *Component) Messages() *domain.MessageCatalog { return c.ctx.Messages }

// QueuedRegistrations возвращает число акторов, ожидающих регистрации в федерации.
func (c *Component) QueuedRegistrations() int { return len(c.regQueue) }

func (c *Component) env() translator.Env {
	return translator.Env{Actors: c.runtime, Log: c.log}
}

var _ rti.FederateAmbassador = (*Component)(nil)
