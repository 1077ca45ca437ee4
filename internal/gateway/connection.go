package gateway

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/domain"
)

// Connect подключает компонент к федерации и регистрирует в RTI все маппинги.
// При включённом DDM сначала создаются регионы подписки.
func (c *Component) Connect(federation, federate string) error {
	if c.connected {
		return fmt.Errorf("%w: already connected to %q", ErrIllegalState, c.federation)
	}
	if c.ctx.Ambassador == nil {
		return fmt.Errorf("%w: no RTI ambassador", ErrIllegalState)
	}

	if err := c.ctx.Ambassador.JoinFederation(federation, federate, c); err != nil {
		return fmt.Errorf("join federation %q as %q: %w", federation, federate, err)
	}
	c.connected = true
	c.federation, c.federate = federation, federate
	c.wire = newWireState()

	if c.ddmEnabled {
		if err := c.createRegions(); err != nil {
			c.abortConnect()
			return err
		}
	}
	if err := c.syncAll(); err != nil {
		c.abortConnect()
		return err
	}

	c.log.WithFields(logrus.Fields{
		"federation":   federation,
		"federate":     federate,
		"objects":      len(c.objectOrder),
		"interactions": len(c.interactionOrder),
		"ddm":          c.ddmEnabled,
	}).Info("Joined federation")
	return nil
}

func (c *Component) abortConnect() {
	if err := c.Disconnect(); err != nil {
		c.log.WithError(err).Warn("Failed to leave federation after connect error")
	}
}

// Disconnect удаляет регионы DDM, выходит из федерации и очищает
// состояние времени выполнения. Без подключения ничего не делает.
func (c *Component) Disconnect() error {
	if !c.connected {
		return nil
	}

	if c.ddmEnabled {
		c.destroyRegions()
	}
	err := c.ctx.Ambassador.ResignFederation()

	c.log.WithField("federation", c.federation).Info("Resigned from federation")

	c.connected = false
	c.federation, c.federate = "", ""
	c.wire = newWireState()
	c.clearRuntime()

	if err != nil {
		return fmt.Errorf("resign federation: %w", err)
	}
	return nil
}

// SetDDMEnabled включает или выключает DDM. Во время подключения запрещено.
func (c *Component) SetDDMEnabled(enable bool) error {
	if c.ddmEnabled == enable {
		return nil
	}
	if c.connected {
		return fmt.Errorf("%w: cannot change DDM mode while connected", ErrIllegalState)
	}
	c.ddmEnabled = enable
	return nil
}

func (c *Component) IsDDMEnabled() bool { return c.ddmEnabled }

func (c *Component) clearRuntime() {
	c.runtime.Clear()
	c.regQueue = make(map[uuid.UUID][]*domain.Message)
}
