package gateway

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"hla-gateway/internal/ddm"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/rti"
)

// SubscriptionCalculators возвращает группу калькуляторов регионов подписки.
func (c *Component) SubscriptionCalculators() *ddm.CalculatorGroup { return &c.subCalcs }

// PublicationCalculators возвращает группу калькуляторов регионов публикации.
// Регионы публикации пока только хранятся и в RTI не передаются.
func (c *Component) PublicationCalculators() *ddm.CalculatorGroup { return &c.pubCalcs }

// AddCalculator добавляет калькулятор в группу по назначению.
func (c *Component) AddCalculator(usage ddm.Usage, calc ddm.Calculator) error {
	var err error
	switch usage {
	case ddm.UsagePublication:
		err = c.pubCalcs.Add(calc)
	default:
		err = c.subCalcs.Add(calc)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// SubscriptionRegions возвращает текущие регионы подписки по калькуляторам.
func (c *Component) SubscriptionRegions() map[string][]ddm.RegionData {
	out := make(map[string][]ddm.RegionData, len(c.subRegions))
	for name, regions := range c.subRegions {
		out[name] = append([]ddm.RegionData(nil), regions...)
	}
	return out
}

// CreateDDMSubscriptionRegions создаёт регионы всех калькуляторов подписки и
// подписывает маппинги, ссылающиеся на эти калькуляторы.
func (c *Component) CreateDDMSubscriptionRegions() error {
	if !c.connected {
		return fmt.Errorf("%w: not connected", ErrIllegalState)
	}
	if len(c.subRegions) > 0 {
		return fmt.Errorf("%w: subscription regions already exist", ErrIllegalState)
	}
	if err := c.createRegions(); err != nil {
		return err
	}
	return c.syncAll()
}

// DestroyDDMSubscriptionRegions снимает подписки с регионами и удаляет регионы.
func (c *Component) DestroyDDMSubscriptionRegions() {
	if !c.connected {
		return
	}
	c.destroyRegions()
}

// UpdateDDMSubscriptions пересчитывает регионы и отправляет в RTI только
// изменения: неизменённый регион не трогается, изменённые границы
// обновляются на месте, регион с другим набором измерений пересоздаётся.
func (c *Component) UpdateDDMSubscriptions() error {
	if !c.connected || !c.ddmEnabled {
		return nil
	}

	for i := 0; i < c.subCalcs.Len(); i++ {
		calc := c.subCalcs.At(i)
		if err := c.updateCalculatorRegions(calc); err != nil {
			return fmt.Errorf("ddm calculator %q: %w", calc.Name(), err)
		}
	}
	return nil
}

func (c *Component) updateDDM() {
	if err := c.UpdateDDMSubscriptions(); err != nil {
		c.log.WithError(err).Error("Failed to update DDM subscriptions")
	}
}

func (c *Component) createRegions() error {
	if c.subCalcs.IsEmpty() {
		return fmt.Errorf("%w: DDM is enabled but no subscription region calculators are registered", ErrConfiguration)
	}
	for i := 0; i < c.subCalcs.Len(); i++ {
		calc := c.subCalcs.At(i)
		desired := calc.Regions()
		held := make([]ddm.RegionData, 0, len(desired))
		for _, r := range desired {
			if err := c.createRegion(&r); err != nil {
				c.subRegions[calc.Name()] = held
				return fmt.Errorf("ddm calculator %q: %w", calc.Name(), err)
			}
			held = append(held, r)
		}
		c.subRegions[calc.Name()] = held
	}
	return nil
}

func (c *Component) createRegion(r *ddm.RegionData) error {
	dims := make([]rti.DimensionHandle, 0, len(r.Dimensions))
	for _, d := range r.Dimensions {
		h, err := c.ctx.Ambassador.DimensionHandle(d.Name)
		if err != nil {
			return err
		}
		dims = append(dims, h)
	}
	handle, err := c.ctx.Ambassador.CreateRegion(dims)
	if err != nil {
		return err
	}
	for i, d := range r.Dimensions {
		if err := c.ctx.Ambassador.SetRangeBounds(handle, dims[i], rti.Bounds{Lower: d.Min, Upper: d.Max}); err != nil {
			return err
		}
	}
	if err := c.ctx.Ambassador.CommitRegionModifications([]rti.RegionHandle{handle}); err != nil {
		return err
	}
	r.Region = handle
	r.HasRegion = true
	c.log.WithField("region", r.String()).Debug("Created DDM region")
	return nil
}

func (c *Component) setBounds(held *ddm.RegionData, desired ddm.RegionData) error {
	for i, d := range desired.Dimensions {
		if held.Dimensions[i] == d {
			continue
		}
		dim, err := c.ctx.Ambassador.DimensionHandle(d.Name)
		if err != nil {
			return err
		}
		if err := c.ctx.Ambassador.SetRangeBounds(held.Region, dim, rti.Bounds{Lower: d.Min, Upper: d.Max}); err != nil {
			return err
		}
	}
	held.Dimensions = append([]ddm.DimensionValues(nil), desired.Dimensions...)
	return nil
}

func (c *Component) updateCalculatorRegions(calc ddm.Calculator) error {
	key := calc.Name()
	desired := calc.Regions()
	held := c.subRegions[key]
	var modified []rti.RegionHandle

	n := min(len(desired), len(held))
	for j := 0; j < n; j++ {
		h := &held[j]
		if h.HasRegion && h.SameBounds(desired[j]) {
			continue
		}
		if h.HasRegion && h.SameLayout(desired[j]) {
			if err := c.setBounds(h, desired[j]); err != nil {
				return err
			}
			modified = append(modified, h.Region)
			continue
		}

		replacement := desired[j]
		if err := c.createRegion(&replacement); err != nil {
			return err
		}
		old := *h
		*h = replacement
		if old.HasRegion {
			c.moveSubscriptions(key, []rti.RegionHandle{old.Region}, []rti.RegionHandle{replacement.Region})
			if err := c.ctx.Ambassador.DeleteRegion(old.Region); err != nil {
				return err
			}
		} else {
			c.moveSubscriptions(key, nil, []rti.RegionHandle{replacement.Region})
		}
	}

	for j := n; j < len(desired); j++ {
		r := desired[j]
		if err := c.createRegion(&r); err != nil {
			return err
		}
		held = append(held, r)
		c.moveSubscriptions(key, nil, []rti.RegionHandle{r.Region})
	}

	if len(held) > len(desired) {
		var surplus []rti.RegionHandle
		for _, r := range held[len(desired):] {
			if r.HasRegion {
				surplus = append(surplus, r.Region)
			}
		}
		c.moveSubscriptions(key, surplus, nil)
		for _, r := range surplus {
			if err := c.ctx.Ambassador.DeleteRegion(r); err != nil {
				return err
			}
		}
		held = held[:len(desired)]
	}
	c.subRegions[key] = held

	if len(modified) > 0 {
		if err := c.ctx.Ambassador.CommitRegionModifications(modified); err != nil {
			return err
		}
		c.log.WithFields(logrus.Fields{
			"calculator": key,
			"regions":    len(modified),
		}).Debug("Updated DDM regions")
	}
	return nil
}

// moveSubscriptions переносит подписки калькулятора key со старых регионов на новые.
func (c *Component) moveSubscriptions(key string, remove, add []rti.RegionHandle) {
	amb := c.ctx.Ambassador
	for _, oc := range c.wire.classes {
		attrs := oc.subscribed[key]
		if len(attrs) == 0 {
			continue
		}
		hs, err := c.attributeHandles(oc, sortedKeys(attrs))
		if err != nil {
			c.log.WithError(err).Error("Cannot move DDM subscription")
			continue
		}
		if len(remove) > 0 {
			if err := amb.UnsubscribeObjectClassAttributes(oc.handle, hs, remove...); err != nil {
				c.log.WithError(err).WithField("object_class", oc.name).Error("Failed to unsubscribe region")
			}
		}
		if len(add) > 0 {
			if err := amb.SubscribeObjectClassAttributes(oc.handle, hs, add...); err != nil {
				c.log.WithError(err).WithField("object_class", oc.name).Error("Failed to subscribe region")
			}
		}
	}
	for _, ic := range c.wire.interactions {
		if !ic.subscribed || ic.subscribedKey != key {
			continue
		}
		if len(remove) > 0 {
			if err := amb.UnsubscribeInteractionClass(ic.handle, remove...); err != nil {
				c.log.WithError(err).WithField("interaction_class", ic.name).Error("Failed to unsubscribe region")
			}
		}
		if len(add) > 0 {
			if err := amb.SubscribeInteractionClass(ic.handle, add...); err != nil {
				c.log.WithError(err).WithField("interaction_class", ic.name).Error("Failed to subscribe region")
			}
		}
	}
}

func (c *Component) destroyRegions() {
	for key, regions := range c.subRegions {
		var handles []rti.RegionHandle
		for _, r := range regions {
			if r.HasRegion {
				handles = append(handles, r.Region)
			}
		}
		if len(handles) > 0 {
			c.moveSubscriptions(key, handles, nil)
		}
		for _, oc := range c.wire.classes {
			delete(oc.subscribed, key)
		}
		for _, ic := range c.wire.interactions {
			if ic.subscribed && ic.subscribedKey == key {
				ic.subscribed = false
			}
		}
		for _, h := range handles {
			if err := c.ctx.Ambassador.DeleteRegion(h); err != nil {
				c.log.WithError(err).WithField("calculator", key).Error("Failed to delete DDM region")
			}
		}
	}
	c.subRegions = make(map[string][]ddm.RegionData)
}

// regionHandles возвращает регионы для подписки с ключом key. Без DDM
// подписка идёт без регионов.
func (c *Component) regionHandles(key string) ([]rti.RegionHandle, bool) {
	if !c.ddmEnabled {
		return nil, true
	}
	var out []rti.RegionHandle
	for _, r := range c.subRegions[key] {
		if r.HasRegion {
			out = append(out, r.Region)
		}
	}
	return out, len(out) > 0
}

// applyInterest передаёт параметры интереса калькуляторам, которые их принимают.
func (c *Component) applyInterest(msg *domain.Message) {
	for _, g := range []*ddm.CalculatorGroup{&c.subCalcs, &c.pubCalcs} {
		for i := 0; i < g.Len(); i++ {
			r, ok := g.At(i).(ddm.InterestReceiver)
			if !ok {
				continue
			}
			if err := r.ApplyInterest(msg); err != nil {
				c.log.WithError(err).Warn("Invalid interest parameters")
			}
		}
	}
}
