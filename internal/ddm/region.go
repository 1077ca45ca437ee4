package ddm

import (
	"fmt"
	"strings"

	"hla-gateway/internal/rti"
)

// Имена измерений, используемые эталонными калькуляторами.
const (
	DimensionSubspace = "subspace"
	DimensionFirst    = "first_dimension"
	DimensionSecond   = "second_dimension"
)

// MaxExtent - верхняя граница координат измерения.
const MaxExtent uint32 = 1<<31 - 1

// DimensionValues - диапазон региона по одному измерению, включительно.
type DimensionValues struct {
	Name string
	Min  uint32
	Max  uint32
}

// RegionData - регион, вычисленный калькулятором, и его хэндл в RTI.
type RegionData struct {
	Name       string
	Dimensions []DimensionValues
	// Region действителен только при HasRegion.
	Region    rti.RegionHandle
	HasRegion bool
}

// Dimension возвращает значения по имени измерения.
func (r *RegionData) Dimension(name string) (DimensionValues, bool) {
	for _, d := range r.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return DimensionValues{}, false
}

// SameLayout сообщает, совпадают ли наборы измерений (порядок важен).
// Разная раскладка требует пересоздания региона в RTI.
func (r *RegionData) SameLayout(o RegionData) bool {
	if len(r.Dimensions) != len(o.Dimensions) {
		return false
	}
	for i := range r.Dimensions {
		if r.Dimensions[i].Name != o.Dimensions[i].Name {
			return false
		}
	}
	return true
}

// SameBounds сообщает, совпадают ли раскладка и все диапазоны.
func (r *RegionData) SameBounds(o RegionData) bool {
	if !r.SameLayout(o) {
		return false
	}
	for i := range r.Dimensions {
		if r.Dimensions[i] != o.Dimensions[i] {
			return false
		}
	}
	return true
}

func (r *RegionData) String() string {
	parts := make([]string, 0, len(r.Dimensions))
	for _, d := range r.Dimensions {
		parts = append(parts, fmt.Sprintf("%s[%d,%d]", d.Name, d.Min, d.Max))
	}
	return r.Name + " " + strings.Join(parts, " ")
}
