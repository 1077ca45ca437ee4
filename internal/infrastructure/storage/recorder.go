package storage

import (
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/rti"
	"hla-gateway/pkg/logger"
)

// Recorder - Ambassador, который пишет входящий трафик федерации в журнал.
// Все остальные вызовы уходят во вложенный Ambassador без изменений.
type Recorder struct {
	rti.Ambassador
	journal *Journal
	log     *logrus.Entry
}

func NewRecorder(amb rti.Ambassador, j *Journal) *Recorder {
	return &Recorder{Ambassador: amb, journal: j, log: logger.For("journal")}
}

// Journal возвращает журнал записи.
func (r *Recorder) Journal() *Journal { return r.journal }

func (r *Recorder) JoinFederation(federation, federate string, callbacks rti.FederateAmbassador) error {
	if r.journal.Federation == "" {
		r.journal.Federation = federation
	}
	return r.Ambassador.JoinFederation(federation, federate, &recordingCallbacks{
		FederateAmbassador: callbacks,
		rec:                r,
		classes:            make(map[rti.ObjectInstanceHandle]rti.ObjectClassHandle),
	})
}

// recordingCallbacks переводит хэндлы в имена, пишет запись и передаёт
// вызов дальше. Вызывается из Tick, то есть из цикла сессии.
type recordingCallbacks struct {
	rti.FederateAmbassador
	rec     *Recorder
	classes map[rti.ObjectInstanceHandle]rti.ObjectClassHandle
}

func (c *recordingCallbacks) DiscoverObjectInstance(h rti.ObjectInstanceHandle, class rti.ObjectClassHandle, name string) {
	c.classes[h] = class
	if className, err := c.rec.ObjectClassName(class); err == nil {
		c.rec.journal.Append(Record{Kind: RecordDiscover, Instance: uint64(h), Class: className, Name: name})
	} else {
		c.rec.log.WithError(err).Warn("Unknown object class, discovery not journaled")
	}
	c.FederateAmbassador.DiscoverObjectInstance(h, class, name)
}

func (c *recordingCallbacks) ReflectAttributeValues(h rti.ObjectInstanceHandle, attrs rti.AttributeValueMap, tag []byte) {
	if class, ok := c.classes[h]; ok {
		values := make(map[string][]byte, len(attrs))
		for ah, data := range attrs {
			name, err := c.rec.AttributeName(class, ah)
			if err != nil {
				c.rec.log.WithError(err).WithField("attribute", ah).Warn("Unknown attribute, value not journaled")
				continue
			}
			values[name] = append([]byte(nil), data...)
		}
		c.rec.journal.Append(Record{Kind: RecordReflect, Instance: uint64(h), Tag: copyTag(tag), Values: values})
	}
	c.FederateAmbassador.ReflectAttributeValues(h, attrs, tag)
}

func (c *recordingCallbacks) RemoveObjectInstance(h rti.ObjectInstanceHandle, tag []byte) {
	if _, ok := c.classes[h]; ok {
		delete(c.classes, h)
		c.rec.journal.Append(Record{Kind: RecordRemove, Instance: uint64(h), Tag: copyTag(tag)})
	}
	c.FederateAmbassador.RemoveObjectInstance(h, tag)
}

func (c *recordingCallbacks) ReceiveInteraction(class rti.InteractionClassHandle, params rti.ParameterValueMap, tag []byte) {
	if className, err := c.rec.InteractionClassName(class); err == nil {
		values := make(map[string][]byte, len(params))
		for ph, data := range params {
			if name, err := c.rec.ParameterName(class, ph); err == nil {
				values[name] = append([]byte(nil), data...)
			}
		}
		c.rec.journal.Append(Record{Kind: RecordInteraction, Class: className, Tag: copyTag(tag), Values: values})
	}
	c.FederateAmbassador.ReceiveInteraction(class, params, tag)
}

func copyTag(tag []byte) []byte {
	if len(tag) == 0 {
		return nil
	}
	return append([]byte(nil), tag...)
}
