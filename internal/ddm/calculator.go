package ddm

import (
	"fmt"
	"sort"

	"hla-gateway/internal/domain"
)

// Usage - назначение калькулятора.
type Usage string

const (
	UsageSubscription Usage = "subscription"
	UsagePublication  Usage = "publication"
)

// ParseUsage разбирает назначение калькулятора. Пустая строка означает подписку.
func ParseUsage(s string) (Usage, error) {
	switch Usage(s) {
	case "", UsageSubscription:
		return UsageSubscription, nil
	case UsagePublication:
		return UsagePublication, nil
	}
	return "", fmt.Errorf("unknown ddm usage %q", s)
}

// Calculator вычисляет желаемые регионы по параметрам интереса федерата.
// Количество регионов не меняется между пересчётами без явной перенастройки.
type Calculator interface {
	Name() string
	Regions() []RegionData
}

// InterestReceiver реализуется калькуляторами, которые берут параметры
// интереса из сообщения INFO_INTEREST_CHANGED.
type InterestReceiver interface {
	ApplyInterest(p domain.PropertyContainer) error
}

// CalculatorGroup - упорядоченный набор калькуляторов с уникальными именами.
type CalculatorGroup struct {
	calcs []Calculator
}

func (g *CalculatorGroup) Add(c Calculator) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("ddm calculator without name")
	}
	if _, ok := g.Find(c.Name()); ok {
		return fmt.Errorf("ddm calculator %q is already registered", c.Name())
	}
	g.calcs = append(g.calcs, c)
	return nil
}

// Remove удаляет калькулятор по имени.
func (g *CalculatorGroup) Remove(name string) bool {
	for i, c := range g.calcs {
		if c.Name() == name {
			g.calcs = append(g.calcs[:i], g.calcs[i+1:]...)
			return true
		}
	}
	return false
}

func (g *CalculatorGroup) Find(name string) (Calculator, bool) {
	for _, c := range g.calcs {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// At возвращает калькулятор по порядковому номеру.
func (g *CalculatorGroup) At(i int) Calculator { return g.calcs[i] }

func (g *CalculatorGroup) Len() int { return len(g.calcs) }

func (g *CalculatorGroup) IsEmpty() bool { return len(g.calcs) == 0 }

func (g *CalculatorGroup) Clear() { g.calcs = nil }

// Names возвращает имена калькуляторов по алфавиту.
func (g *CalculatorGroup) Names() []string {
	out := make([]string, 0, len(g.calcs))
	for _, c := range g.calcs {
		out = append(out, c.Name())
	}
	sort.Strings(out)
	return out
}
