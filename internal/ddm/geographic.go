package ddm

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"hla-gateway/internal/domain"
)

// GeographicCalculator выдаёт один регион вокруг точки обзора.
//
// Координаты X и Y точки обзора линейно отображаются из границ мира на
// [0, MaxExtent] по измерениям first_dimension и second_dimension.
// Центр региона привязан к сетке с шагом cell, поэтому перемещения точки
// обзора в пределах ячейки регион не меняют.
type GeographicCalculator struct {
	name      string
	worldMin  mgl64.Vec2
	worldMax  mgl64.Vec2
	cell      float64
	spaces    uint32
	appSpace  uint32
	viewpoint mgl64.Vec3
	radius    float64
}

func NewGeographicCalculator(name string, worldMin, worldMax mgl64.Vec2, cell, radius float64) (*GeographicCalculator, error) {
	if worldMax.X() <= worldMin.X() || worldMax.Y() <= worldMin.Y() {
		return nil, fmt.Errorf("ddm calculator %q: empty world bounds", name)
	}
	if cell <= 0 || radius < 0 {
		return nil, fmt.Errorf("ddm calculator %q: cell must be positive and radius non-negative", name)
	}
	return &GeographicCalculator{
		name:     name,
		worldMin: worldMin,
		worldMax: worldMax,
		cell:     cell,
		spaces:   1,
		radius:   radius,
	}, nil
}

func (c *GeographicCalculator) Name() string { return c.name }

// SetAppSpace ограничивает измерение subspace одним прикладным пространством из spaces.
func (c *GeographicCalculator) SetAppSpace(appSpace, spaces uint32) error {
	if spaces == 0 || appSpace >= spaces {
		return fmt.Errorf("ddm calculator %q: app space %d out of range [0, %d)", c.name, appSpace, spaces)
	}
	c.appSpace, c.spaces = appSpace, spaces
	return nil
}

func (c *GeographicCalculator) SetViewpoint(p mgl64.Vec3) { c.viewpoint = p }

func (c *GeographicCalculator) Viewpoint() mgl64.Vec3 { return c.viewpoint }

func (c *GeographicCalculator) SetRadius(r float64) { c.radius = math.Max(r, 0) }

func (c *GeographicCalculator) Regions() []RegionData {
	first := c.axis(DimensionFirst, c.viewpoint.X(), c.worldMin.X(), c.worldMax.X())
	second := c.axis(DimensionSecond, c.viewpoint.Y(), c.worldMin.Y(), c.worldMax.Y())
	return []RegionData{{
		Name:       c.name,
		Dimensions: []DimensionValues{subspaceRange(c.appSpace, c.spaces), first, second},
	}}
}

func (c *GeographicCalculator) axis(name string, center, lo, hi float64) DimensionValues {
	snapped := math.Round(center/c.cell) * c.cell
	from, to := snapped-c.radius, snapped+c.radius
	return DimensionValues{Name: name, Min: toExtent(from, lo, hi), Max: toExtent(to, lo, hi)}
}

func toExtent(v, lo, hi float64) uint32 {
	v = mgl64.Clamp(v, lo, hi)
	return uint32(math.Round((v - lo) / (hi - lo) * float64(MaxExtent)))
}

func (c *GeographicCalculator) ApplyInterest(p domain.PropertyContainer) error {
	if v, ok := p.GetProperty(InterestViewpoint); ok {
		vec, ok := v.(domain.Vec3)
		if !ok {
			return fmt.Errorf("ddm calculator %q: %s must be vec3, got %s", c.name, InterestViewpoint, v.Type())
		}
		c.SetViewpoint(mgl64.Vec3(vec))
	}
	if v, ok := p.GetProperty(InterestRange); ok {
		r, ok := domain.Float64(v)
		if !ok {
			return fmt.Errorf("ddm calculator %q: %s must be numeric, got %s", c.name, InterestRange, v.Type())
		}
		c.SetRadius(r)
	}
	return nil
}
