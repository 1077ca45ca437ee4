package ddm

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"hla-gateway/internal/domain"
)

func TestCalculatorGroup(t *testing.T) {
	var g CalculatorGroup
	a, _ := NewAppSpaceCalculator("appspace", 4, 0)
	b, _ := NewGeographicCalculator("geo", mgl64.Vec2{-1, -1}, mgl64.Vec2{1, 1}, 0.1, 0.2)

	if err := g.Add(a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := g.Add(b); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := g.Add(a); err == nil {
		t.Error("Add() of a duplicate name succeeded")
	}

	if g.Len() != 2 || g.At(0).Name() != "appspace" {
		t.Errorf("group order broken: %v", g.Names())
	}
	if c, ok := g.Find("geo"); !ok || c != b {
		t.Errorf("Find() = %v, %v", c, ok)
	}
	if !g.Remove("appspace") || g.Remove("appspace") {
		t.Error("Remove() must succeed exactly once")
	}
	g.Clear()
	if !g.IsEmpty() {
		t.Error("Clear() left calculators")
	}
}

func TestAppSpaceCalculator(t *testing.T) {
	c, err := NewAppSpaceCalculator("appspace", 4, 1)
	if err != nil {
		t.Fatalf("NewAppSpaceCalculator() error = %v", err)
	}

	regions := c.Regions()
	if len(regions) != 1 {
		t.Fatalf("Regions() len = %d, want 1", len(regions))
	}
	d, ok := regions[0].Dimension(DimensionSubspace)
	width := MaxExtent / 4
	if !ok || d.Min != width || d.Max != 2*width-1 {
		t.Errorf("subspace = %+v, want [%d, %d]", d, width, 2*width-1)
	}

	if err := c.SetAppSpace(4); err == nil {
		t.Error("SetAppSpace() out of range succeeded")
	}

	msg := domain.NewDynamicMessage(domain.MessageInterestChanged)
	_ = msg.SetParam(InterestAppSpace, domain.UInt(3))
	if err := c.ApplyInterest(msg); err != nil {
		t.Fatalf("ApplyInterest() error = %v", err)
	}
	d, _ = c.Regions()[0].Dimension(DimensionSubspace)
	if d.Max != MaxExtent {
		t.Errorf("last app space must reach MaxExtent, got %+v", d)
	}

	if _, err := NewAppSpaceCalculator("bad", 0, 0); err == nil {
		t.Error("zero app spaces accepted")
	}
}

func TestGeographicCalculator_SnapsToGrid(t *testing.T) {
	c, err := NewGeographicCalculator("geo", mgl64.Vec2{-1000, -1000}, mgl64.Vec2{1000, 1000}, 100, 200)
	if err != nil {
		t.Fatalf("NewGeographicCalculator() error = %v", err)
	}

	before := c.Regions()[0]
	if len(before.Dimensions) != 3 {
		t.Fatalf("dimensions = %v", before.Dimensions)
	}

	c.SetViewpoint(mgl64.Vec3{20, -30, 500})
	if after := c.Regions()[0]; !before.SameBounds(after) {
		t.Errorf("move inside a cell changed the region: %s -> %s", before.String(), after.String())
	}

	c.SetViewpoint(mgl64.Vec3{300, 0, 0})
	after := c.Regions()[0]
	if before.SameBounds(after) {
		t.Error("move across cells did not change the region")
	}
	if !before.SameLayout(after) {
		t.Error("layout must stay stable")
	}

	first, _ := after.Dimension(DimensionFirst)
	if first.Min >= first.Max {
		t.Errorf("first dimension = %+v", first)
	}
}

func TestGeographicCalculator_ClampsToWorld(t *testing.T) {
	c, _ := NewGeographicCalculator("geo", mgl64.Vec2{0, 0}, mgl64.Vec2{100, 100}, 10, 50)
	c.SetViewpoint(mgl64.Vec3{0, 100, 0})

	r := c.Regions()[0]
	first, _ := r.Dimension(DimensionFirst)
	second, _ := r.Dimension(DimensionSecond)
	if first.Min != 0 {
		t.Errorf("first.Min = %d, want 0", first.Min)
	}
	if second.Max != MaxExtent {
		t.Errorf("second.Max = %d, want %d", second.Max, MaxExtent)
	}
}

func TestGeographicCalculator_ApplyInterest(t *testing.T) {
	c, _ := NewGeographicCalculator("geo", mgl64.Vec2{-10, -10}, mgl64.Vec2{10, 10}, 1, 1)

	msg := domain.NewDynamicMessage(domain.MessageInterestChanged)
	_ = msg.SetParam(InterestViewpoint, domain.Vec3{5, 5, 0})
	_ = msg.SetParam(InterestRange, domain.Double(3))
	if err := c.ApplyInterest(msg); err != nil {
		t.Fatalf("ApplyInterest() error = %v", err)
	}
	if c.Viewpoint() != (mgl64.Vec3{5, 5, 0}) {
		t.Errorf("Viewpoint() = %v", c.Viewpoint())
	}

	bad := domain.NewDynamicMessage(domain.MessageInterestChanged)
	_ = bad.SetParam(InterestViewpoint, domain.String("here"))
	if err := c.ApplyInterest(bad); err == nil {
		t.Error("ApplyInterest() accepted a non-vector viewpoint")
	}
}
