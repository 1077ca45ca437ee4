package ddm

import (
	"fmt"

	"hla-gateway/internal/domain"
)

// Параметры интереса, которые калькуляторы читают из INFO_INTEREST_CHANGED.
const (
	InterestAppSpace  = "appSpace"
	InterestViewpoint = "viewpoint"
	InterestRange     = "range"
)

// AppSpaceCalculator выдаёт один регион по измерению subspace,
// соответствующий номеру прикладного пространства.
type AppSpaceCalculator struct {
	name     string
	spaces   uint32
	appSpace uint32
}

// NewAppSpaceCalculator делит измерение subspace на spaces равных частей.
func NewAppSpaceCalculator(name string, spaces, appSpace uint32) (*AppSpaceCalculator, error) {
	if spaces == 0 {
		return nil, fmt.Errorf("ddm calculator %q: number of app spaces must be positive", name)
	}
	c := &AppSpaceCalculator{name: name, spaces: spaces}
	if err := c.SetAppSpace(appSpace); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *AppSpaceCalculator) Name() string { return c.name }

func (c *AppSpaceCalculator) AppSpace() uint32 { return c.appSpace }

func (c *AppSpaceCalculator) SetAppSpace(n uint32) error {
	if n >= c.spaces {
		return fmt.Errorf("ddm calculator %q: app space %d out of range [0, %d)", c.name, n, c.spaces)
	}
	c.appSpace = n
	return nil
}

func (c *AppSpaceCalculator) Regions() []RegionData {
	return []RegionData{{
		Name:       c.name,
		Dimensions: []DimensionValues{subspaceRange(c.appSpace, c.spaces)},
	}}
}

func (c *AppSpaceCalculator) ApplyInterest(p domain.PropertyContainer) error {
	v, ok := p.GetProperty(InterestAppSpace)
	if !ok {
		return nil
	}
	n, ok := domain.Uint64(v)
	if !ok {
		return fmt.Errorf("ddm calculator %q: %s must be numeric, got %s", c.name, InterestAppSpace, v.Type())
	}
	return c.SetAppSpace(uint32(n))
}

func subspaceRange(appSpace, spaces uint32) DimensionValues {
	width := MaxExtent / spaces
	lo := appSpace * width
	hi := lo + width - 1
	if appSpace == spaces-1 {
		hi = MaxExtent
	}
	return DimensionValues{Name: DimensionSubspace, Min: lo, Max: hi}
}
