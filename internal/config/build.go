package config

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/ddm"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/translator"
)

// Calculator - калькулятор DDM с назначением.
type Calculator struct {
	Usage ddm.Usage
	Calc  ddm.Calculator
}

// Bundle - конфигурация, готовая к установке в компонент шлюза.
type Bundle struct {
	Messages     *domain.MessageCatalog
	Objects      []*mapping.ObjectToActor
	Interactions []*mapping.InteractionToMessage
	DDMEnabled   bool
	Calculators  []Calculator
}

// Installer - часть компонента шлюза, принимающая конфигурацию.
type Installer interface {
	RegisterActorMapping(m *mapping.ObjectToActor) error
	RegisterMessageMapping(m *mapping.InteractionToMessage) error
	SetDDMEnabled(enable bool) error
	AddCalculator(usage ddm.Usage, calc ddm.Calculator) error
}

// Build переводит документ в объекты маппингов. Имена типов на проводе
// разрешаются через реестр трансляторов. Возвращаются все найденные ошибки.
func Build(doc *Document, reg *translator.Registry) (*Bundle, error) {
	b := &Bundle{Messages: domain.NewMessageCatalog()}
	var errs []error

	for i, m := range doc.Messages {
		if err := buildMessage(b.Messages, m); err != nil {
			errs = append(errs, fmt.Errorf("messages[%d]: %w", i, err))
		}
	}
	for i, o := range doc.Objects {
		m, err := buildObject(o, reg)
		if err != nil {
			errs = append(errs, fmt.Errorf("objects[%d]: %w", i, err))
			continue
		}
		b.Objects = append(b.Objects, m)
	}
	for i, in := range doc.Interactions {
		m, err := buildInteraction(in, reg)
		if err != nil {
			errs = append(errs, fmt.Errorf("interactions[%d]: %w", i, err))
			continue
		}
		b.Interactions = append(b.Interactions, m)
	}
	if doc.DDM != nil {
		b.DDMEnabled = doc.DDM.Enabled
		for i, c := range doc.DDM.Calculators {
			calc, err := buildCalculator(c)
			if err != nil {
				errs = append(errs, fmt.Errorf("ddm.calculators[%d]: %w", i, err))
				continue
			}
			b.Calculators = append(b.Calculators, calc)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b, nil
}

// Install регистрирует маппинги и калькуляторы. Компонент должен быть отключён.
func (b *Bundle) Install(dst Installer) error {
	if err := dst.SetDDMEnabled(b.DDMEnabled); err != nil {
		return err
	}
	for _, c := range b.Calculators {
		if err := dst.AddCalculator(c.Usage, c.Calc); err != nil {
			return err
		}
	}
	for _, m := range b.Objects {
		if err := dst.RegisterActorMapping(m); err != nil {
			return err
		}
	}
	for _, m := range b.Interactions {
		if err := dst.RegisterMessageMapping(m); err != nil {
			return err
		}
	}
	return nil
}

func buildMessage(catalog *domain.MessageCatalog, m MessageDoc) error {
	specs := make([]domain.ParamSpec, 0, len(m.Params))
	for _, p := range m.Params {
		t := domain.ParseDataType(p.Type)
		if t == domain.DataTypeUnknown {
			return fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Type)
		}
		spec := domain.ParamSpec{Name: p.Name, Type: t}
		if p.Default != "" {
			v, err := domain.ParseValue(t, p.Default)
			if err != nil {
				return fmt.Errorf("parameter %q default: %w", p.Name, err)
			}
			spec.Default = v
		}
		specs = append(specs, spec)
	}
	return catalog.Register(domain.ParseMessageType(m.Type), specs...)
}

func buildObject(o ObjectDoc, reg *translator.Registry) (*mapping.ObjectToActor, error) {
	actorType, err := domain.ParseActorType(o.ActorType)
	if err != nil {
		return nil, err
	}
	dir, ok := mapping.ParseLocalOrRemote(o.Direction)
	if !ok {
		return nil, fmt.Errorf("unknown direction %q", o.Direction)
	}

	m := &mapping.ObjectToActor{
		ActorType:               actorType,
		ObjectClassName:         o.Class,
		MappingName:             o.Name,
		EntityIDAttributeName:   o.EntityIDAttribute,
		EntityTypeAttributeName: o.EntityTypeAttribute,
		LocalOrRemote:           dir,
		DDMCalculatorName:       o.Calculator,
	}
	if o.EntityType != "" {
		et, err := types.ParseEntityType(o.EntityType)
		if err != nil {
			return nil, err
		}
		m.EntityType = &et
	}
	if m.Mappings, err = buildFields(o.Fields, reg); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	return m, m.Validate()
}

func buildInteraction(in InteractionDoc, reg *translator.Registry) (*mapping.InteractionToMessage, error) {
	dir, ok := mapping.ParseLocalOrRemote(in.Direction)
	if !ok {
		return nil, fmt.Errorf("unknown direction %q", in.Direction)
	}
	m := &mapping.InteractionToMessage{
		MessageType:       domain.ParseMessageType(in.Message),
		InteractionName:   in.Interaction,
		MappingName:       in.Name,
		LocalOrRemote:     dir,
		DDMCalculatorName: in.Calculator,
	}
	var err error
	if m.Mappings, err = buildFields(in.Fields, reg); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	return m, m.Validate()
}

func buildFields(fields []FieldDoc, reg *translator.Registry) ([]mapping.OneToManyMapping, error) {
	out := make([]mapping.OneToManyMapping, 0, len(fields))
	for i, f := range fields {
		m := mapping.OneToManyMapping{
			HLAName:        f.HLA,
			RequiredForHLA: f.RequiredForHLA,
			Special:        mapping.IsSpecialName(f.HLA),
			Array:          f.Array,
		}
		if !m.Special && f.Type != "" {
			t, ok := reg.AttributeType(f.Type)
			if !ok {
				return nil, fmt.Errorf("fields[%d] %q: unknown wire type %q", i, f.HLA, f.Type)
			}
			m.HLAType = t
		}
		for _, p := range f.Params {
			def, err := buildParam(p)
			if err != nil {
				return nil, fmt.Errorf("fields[%d] %q: %w", i, f.HLA, err)
			}
			m.Params = append(m.Params, def)
		}
		out = append(out, m)
	}
	return out, nil
}

func buildParam(p ParamDoc) (mapping.ParameterDefinition, error) {
	t := domain.ParseDataType(p.Type)
	if t == domain.DataTypeUnknown {
		return mapping.ParameterDefinition{}, fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Type)
	}
	enums := make([]mapping.EnumPair, 0, len(p.Enums))
	for _, e := range p.Enums {
		enums = append(enums, mapping.EnumPair{HLA: e.HLA, Game: e.Game})
	}
	def := mapping.NewParameterDefinition(p.Name, t, p.Default, p.Required, enums...)
	def.AllowUnmapped = p.AllowUnmapped
	return def, nil
}

func buildCalculator(c CalculatorDoc) (Calculator, error) {
	usage, err := ddm.ParseUsage(c.Usage)
	if err != nil {
		return Calculator{}, err
	}

	switch c.Kind {
	case "appspace":
		calc, err := ddm.NewAppSpaceCalculator(c.Name, c.Spaces, c.AppSpace)
		if err != nil {
			return Calculator{}, err
		}
		return Calculator{Usage: usage, Calc: calc}, nil
	case "geographic":
		calc, err := ddm.NewGeographicCalculator(c.Name,
			mgl64.Vec2{c.WorldMin[0], c.WorldMin[1]},
			mgl64.Vec2{c.WorldMax[0], c.WorldMax[1]},
			c.Cell, c.Radius)
		if err != nil {
			return Calculator{}, err
		}
		if c.Spaces > 0 {
			if err := calc.SetAppSpace(c.AppSpace, c.Spaces); err != nil {
				return Calculator{}, err
			}
		}
		return Calculator{Usage: usage, Calc: calc}, nil
	}
	return Calculator{}, fmt.Errorf("calculator %q: unknown kind %q", c.Name, c.Kind)
}
