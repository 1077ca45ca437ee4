package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hla-gateway/internal/domain"
	"hla-gateway/internal/engine/handlers"
	"hla-gateway/internal/engine/handlers/actions"
	"hla-gateway/internal/gateway"
	"hla-gateway/internal/network"
	"hla-gateway/internal/rti"
	"hla-gateway/internal/translator"
	"hla-gateway/pkg/api"
	"hla-gateway/pkg/logger"
)

// ErrStopped возвращается командам, пришедшим после остановки цикла.
var ErrStopped = errors.New("session stopped")

// Deps - внешние зависимости сессии.
type Deps struct {
	Ambassador  rti.Ambassador
	Hub         *network.Broadcaster
	Translators *translator.Registry
	Messages    *domain.MessageCatalog
	Options     gateway.Options
}

// Session владеет компонентом шлюза и хранилищем акторов и выполняет все
// обращения к ним на одной горутине цикла.
type Session struct {
	cfg Config

	Gateway *gateway.Component
	Actors  *ActorStore
	Hub     *network.Broadcaster

	// Каналы коммуникации
	CommandChan chan func() // Замыкания, выполняемые на цикле
	done        chan struct{}

	CurrentTick uint64
	Logs        []api.LogEntry // Последние события сессии

	handlers map[string]handlers.HandlerFunc
	log      *logrus.Entry
}

func NewSession(cfg Config, deps Deps) *Session {
	if deps.Hub == nil {
		deps.Hub = network.NewBroadcaster()
	}
	if cfg.LogLimit <= 0 {
		cfg.LogLimit = NewConfig().LogLimit
	}

	s := &Session{
		cfg:         cfg,
		Actors:      NewActorStore(),
		Hub:         deps.Hub,
		CommandChan: make(chan func(), 100),
		done:        make(chan struct{}),
		Logs:        []api.LogEntry{},
		handlers:    make(map[string]handlers.HandlerFunc),
		log:         logger.For("session"),
	}
	s.Gateway = gateway.New(gateway.Context{
		Ambassador:  deps.Ambassador,
		Dispatcher:  s.Hub,
		Actors:      s.Actors,
		Translators: deps.Translators,
		Messages:    deps.Messages,
		Log:         logger.For("gateway"),
	}, deps.Options)

	s.Hub.Handle(s.onInbound)
	s.registerHandlers()
	return s
}

func (s *Session) registerHandlers() {
	s.handlers["INTEREST"] = handlers.WithPayload(actions.HandleInterest)
	s.handlers["ACTOR"] = handlers.WithPayload(actions.HandleActor)
	s.handlers["DELETE"] = handlers.WithPayload(actions.HandleDelete)
	s.handlers["MESSAGE"] = handlers.WithPayload(actions.HandleMessage)
	s.handlers["UNLOAD"] = handlers.WithEmptyPayload(actions.HandleUnload)
}

// Config возвращает параметры запуска.
func (s *Session) Config() Config { return s.cfg }

// Run запускает цикл сессии и блокируется до отмены ctx.
//
// Если задана федерация, цикл сначала подключается к ней и выходит из неё
// при остановке.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	if s.cfg.DDM {
		if err := s.Gateway.SetDDMEnabled(true); err != nil {
			return err
		}
	}
	if s.cfg.Federation != "" {
		if err := s.Gateway.Connect(s.cfg.Federation, s.cfg.Federate); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		s.AddLog(fmt.Sprintf("joined federation %s as %s", s.cfg.Federation, s.cfg.Federate), "FEDERATION")
	}

	var tickC <-chan time.Time
	if s.cfg.Tick > 0 {
		ticker := time.NewTicker(s.cfg.Tick)
		defer ticker.Stop()
		tickC = ticker.C
	}

	s.log.WithFields(logrus.Fields{
		"federation": s.cfg.Federation,
		"tick":       s.cfg.Tick,
	}).Info("Session loop started")

	for {
		select {
		case <-ctx.Done():
			s.drain()
			if err := s.Gateway.Disconnect(); err != nil {
				s.log.WithError(err).Warn("Disconnect on shutdown failed")
			}
			s.log.Info("Session loop stopped")
			return nil

		case cmd := <-s.CommandChan:
			cmd()

		case <-tickC:
			s.tick()
		}
	}
}

// drain выполняет команды, уже стоящие в очереди к моменту остановки.
func (s *Session) drain() {
	for {
		select {
		case cmd := <-s.CommandChan:
			cmd()
		default:
			return
		}
	}
}

func (s *Session) tick() {
	s.CurrentTick++
	s.Hub.SetTick(s.CurrentTick)
	s.Gateway.ProcessMessage(domain.NewSystemMessage(domain.MessageTick))
}

// Query выполняет fn на горутине цикла и ждёт завершения.
func (s *Session) Query(ctx context.Context, fn func(s *Session)) error {
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn(s)
	}

	select {
	case s.CommandChan <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-s.done:
		// Цикл мог выполнить команду при остановке.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish отправляет сообщение симуляции в шлюз на цикле сессии.
func (s *Session) Publish(ctx context.Context, msg *domain.Message) error {
	return s.Query(ctx, func(s *Session) { s.publish(msg) })
}

// Execute выполняет команду наблюдателя и публикует её сообщения.
func (s *Session) Execute(ctx context.Context, cmd api.ClientCommand) (handlers.Result, error) {
	action := strings.ToUpper(strings.TrimSpace(cmd.Action))
	handler, ok := s.handlers[action]
	if !ok {
		return handlers.EmptyResult(), fmt.Errorf("unknown action %q", cmd.Action)
	}

	var (
		res     handlers.Result
		execErr error
	)
	err := s.Query(ctx, func(s *Session) {
		res, execErr = s.execute(handler, cmd)
	})
	if err != nil {
		return handlers.EmptyResult(), err
	}
	return res, execErr
}

func (s *Session) execute(handler handlers.HandlerFunc, cmd api.ClientCommand) (handlers.Result, error) {
	res, err := handler(handlers.Context{
		Actors:   s.Actors,
		Messages: s.Gateway.Messages(),
	}, cmd.Payload)
	if err != nil {
		s.log.WithError(err).WithField("action", cmd.Action).Warn("Command rejected")
		return res, err
	}

	for _, msg := range res.Messages {
		s.publish(msg)
	}
	if res.Msg != "" {
		s.AddLog(res.Msg, res.MsgType)
	}
	return res, nil
}

// publish направляет сообщение симуляции: акторы и пользовательские
// сообщения уходят в федерацию, системные обрабатывает шлюз.
func (s *Session) publish(msg *domain.Message) {
	switch {
	case msg.Type.IsActorMessage():
		s.Actors.ApplyLocal(msg)
		s.Gateway.DispatchNetworkMessage(msg)
	case msg.Type == domain.MessageMapUnloaded:
		s.Gateway.ProcessMessage(msg)
		removed := s.Actors.RemoveRemote()
		s.log.WithField("removed", removed).Info("Map unloaded")
	case msg.Type == domain.MessageTick:
		s.tick()
	case msg.Type == domain.MessageInterestChanged:
		s.Gateway.ProcessMessage(msg)
	default:
		s.Gateway.DispatchNetworkMessage(msg)
	}
}

// onInbound применяет сообщения, пришедшие из федерации, к хранилищу акторов.
func (s *Session) onInbound(msg *domain.Message) {
	if !msg.Type.IsActorMessage() {
		s.AddLog(fmt.Sprintf("received %s via %s", msg.Type, msg.Source), "INTERACTION")
		return
	}

	s.Actors.ApplyRemote(msg)
	switch msg.Type {
	case domain.MessageActorCreated:
		s.AddLog(fmt.Sprintf("remote %s %q discovered via %s", msg.ActorType, msg.Name, msg.Source), "OBJECT")
	case domain.MessageActorDeleted:
		s.AddLog(fmt.Sprintf("remote %s %q removed", msg.ActorType, msg.Name), "OBJECT")
	}
}
