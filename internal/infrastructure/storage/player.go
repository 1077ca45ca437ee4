package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"hla-gateway/internal/rti"
	"hla-gateway/pkg/logger"
)

// Target - федерация, в которую проигрывается журнал. Реализуется
// rti.LocalAmbassador, где записи становятся "удалёнными" федератами.
type Target interface {
	DiscoverRemote(className, name string) (rti.ObjectInstanceHandle, error)
	ReflectRemote(h rti.ObjectInstanceHandle, attrs map[string][]byte, tag []byte) error
	RemoveRemote(h rti.ObjectInstanceHandle, tag []byte) error
	SendRemoteInteraction(className string, params map[string][]byte, tag []byte) error
}

// Player проигрывает записи журнала. Хэндлы экземпляров из журнала
// переназначаются на выданные целевой федерацией.
type Player struct {
	target    Target
	instances map[uint64]rti.ObjectInstanceHandle
	log       *logrus.Entry
}

func NewPlayer(target Target) *Player {
	return &Player{
		target:    target,
		instances: make(map[uint64]rti.ObjectInstanceHandle),
		log:       logger.For("replay"),
	}
}

// Apply проигрывает одну запись.
func (p *Player) Apply(rec Record) error {
	switch rec.Kind {
	case RecordDiscover:
		h, err := p.target.DiscoverRemote(rec.Class, rec.Name)
		if err != nil {
			return err
		}
		p.instances[rec.Instance] = h
		return nil
	case RecordReflect:
		h, ok := p.instances[rec.Instance]
		if !ok {
			return fmt.Errorf("reflect of undiscovered instance %d", rec.Instance)
		}
		return p.target.ReflectRemote(h, rec.Values, rec.Tag)
	case RecordRemove:
		h, ok := p.instances[rec.Instance]
		if !ok {
			return fmt.Errorf("remove of undiscovered instance %d", rec.Instance)
		}
		delete(p.instances, rec.Instance)
		return p.target.RemoveRemote(h, rec.Tag)
	case RecordInteraction:
		return p.target.SendRemoteInteraction(rec.Class, rec.Values, rec.Tag)
	}
	return fmt.Errorf("unknown record kind %d", rec.Kind)
}

// Play проигрывает журнал. speed > 0 выдерживает исходные интервалы,
// ускоренные в speed раз; speed <= 0 проигрывает без пауз. Ошибки
// отдельных записей логируются и не прерывают проигрывание.
func (p *Player) Play(ctx context.Context, j *Journal, speed float64) (int, error) {
	applied := 0
	var prev time.Duration
	for i, rec := range j.Snapshot() {
		if speed > 0 && rec.Offset > prev {
			wait := time.Duration(float64(rec.Offset-prev) / speed)
			select {
			case <-ctx.Done():
				return applied, ctx.Err()
			case <-time.After(wait):
			}
		} else if err := ctx.Err(); err != nil {
			return applied, err
		}
		prev = rec.Offset

		if err := p.Apply(rec); err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"record": i,
				"kind":   rec.Kind.String(),
			}).Warn("Skipping journal record")
			continue
		}
		applied++
	}
	return applied, nil
}
