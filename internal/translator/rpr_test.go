package translator

import (
	"bytes"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type fakeResolver struct {
	byID    map[types.EntityIdentifier]uuid.UUID
	byActor map[uuid.UUID]types.EntityIdentifier
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		byID:    make(map[types.EntityIdentifier]uuid.UUID),
		byActor: make(map[uuid.UUID]types.EntityIdentifier),
	}
}

func (f *fakeResolver) put(id types.EntityIdentifier, actor uuid.UUID) {
	f.byID[id] = actor
	f.byActor[actor] = id
}

func (f *fakeResolver) ActorForEntityIdentifier(id types.EntityIdentifier) (uuid.UUID, bool) {
	a, ok := f.byID[id]
	return a, ok
}

func (f *fakeResolver) EntityIdentifierForActor(id uuid.UUID) (types.EntityIdentifier, bool) {
	e, ok := f.byActor[id]
	return e, ok
}

func scalar(name string, t mapping.AttributeType, defs ...mapping.ParameterDefinition) *mapping.OneToManyMapping {
	return &mapping.OneToManyMapping{HLAName: name, HLAType: t, Params: defs}
}

func def(name string, t domain.DataType) mapping.ParameterDefinition {
	return mapping.ParameterDefinition{GameName: name, GameType: t}
}

func TestRPRTranslator_ScalarRoundTrip(t *testing.T) {
	tr := NewRPRTranslator()

	tests := []struct {
		name  string
		m     *mapping.OneToManyMapping
		value domain.Value
	}{
		{name: "unsigned char", m: scalar("A", RPRUnsignedChar, def("A", domain.DataTypeUInt)), value: domain.UInt(200)},
		{name: "unsigned short", m: scalar("A", RPRUnsignedShort, def("A", domain.DataTypeUInt)), value: domain.UInt(65000)},
		{name: "unsigned int", m: scalar("A", RPRUnsignedInt, def("A", domain.DataTypeUInt)), value: domain.UInt(4000000000)},
		{name: "int", m: scalar("A", RPRInt, def("A", domain.DataTypeInt)), value: domain.Int(-12345)},
		{name: "float", m: scalar("A", RPRFloat, def("A", domain.DataTypeFloat)), value: domain.Float(12.5)},
		{name: "double", m: scalar("A", RPRDouble, def("A", domain.DataTypeDouble)), value: domain.Double(-0.125)},
		{name: "boolean", m: scalar("A", RPRBoolean, def("A", domain.DataTypeBool)), value: domain.Bool(true)},
		{name: "euler angles", m: scalar("A", RPREulerAngles, def("A", domain.DataTypeVec3)), value: domain.Vec3(mgl64.Vec3{10, 20, 30})},
		{name: "world coordinate", m: scalar("A", RPRWorldCoordinate, def("A", domain.DataTypeVec3)), value: domain.Vec3(mgl64.Vec3{1.1, -2.2, 3.3})},
		{name: "marking", m: scalar("A", RPRMarking, def("A", domain.DataTypeString)), value: domain.String("T-72 #1")},
		{name: "string", m: scalar("A", RPRString, def("A", domain.DataTypeString)), value: domain.String("hello")},
		{name: "entity type", m: scalar("A", RPREntityType, def("A", domain.DataTypeString)), value: domain.String("1.1.222.2.4.6.0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := tr.Encode(Env{}, []domain.Value{tt.value}, tt.m)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if n := tt.m.HLAType.EncodedLength; n > 0 && len(buf) != n {
				t.Errorf("Encode() produced %d bytes, want %d", len(buf), n)
			}

			got, err := tr.Decode(Env{}, buf, tt.m)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !domain.Equal(got[0], tt.value) {
				t.Errorf("Decode() = %v, want %v", got[0], tt.value)
			}
		})
	}
}

func TestRPRTranslator_EncodeErrors(t *testing.T) {
	tr := NewRPRTranslator()

	tests := []struct {
		name  string
		m     *mapping.OneToManyMapping
		value domain.Value
	}{
		{name: "overflow", m: scalar("A", RPRUnsignedChar, def("A", domain.DataTypeUInt)), value: domain.UInt(256)},
		{name: "negative unsigned", m: scalar("A", RPRUnsignedInt, def("A", domain.DataTypeInt)), value: domain.Int(-1)},
		{name: "vector from number", m: scalar("A", RPREulerAngles, def("A", domain.DataTypeInt)), value: domain.Int(1)},
		{name: "bad entity type", m: scalar("A", RPREntityType, def("A", domain.DataTypeString)), value: domain.String("tank")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.Encode(Env{}, []domain.Value{tt.value}, tt.m); err == nil {
				t.Error("Encode() should fail")
			}
		})
	}

	if _, err := tr.Encode(Env{}, []domain.Value{nil}, scalar("A", RPRFloat, def("A", domain.DataTypeFloat))); err == nil {
		t.Error("Encode() without values should fail")
	}
}

func TestRPRTranslator_MarkingTruncation(t *testing.T) {
	tr := NewRPRTranslator()
	m := scalar("Marking", RPRMarking, def("Callsign", domain.DataTypeString))

	tests := []struct {
		name     string
		value    string
		want     string
		wantWarn bool
	}{
		{name: "fits", value: "ABCDEFGHIJK", want: "ABCDEFGHIJK"},
		{name: "too long", value: "ABCDEFGHIJKLMN", want: "ABCDEFGHIJK", wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			env := Env{Log: logrus.NewEntry(log)}

			buf, err := tr.Encode(env, []domain.Value{domain.String(tt.value)}, m)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if len(buf) != RPRMarking.EncodedLength {
				t.Fatalf("encoded %d bytes, want %d", len(buf), RPRMarking.EncodedLength)
			}
			got, err := tr.Decode(env, buf, m)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got[0].String() != tt.want {
				t.Errorf("decoded %q, want %q", got[0].String(), tt.want)
			}

			warned := hook.LastEntry() != nil && hook.LastEntry().Level == logrus.WarnLevel
			if warned != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v", warned, tt.wantWarn)
			}
		})
	}
}

func TestRPRTranslator_Enumerations(t *testing.T) {
	tr := NewRPRTranslator()
	damage := mapping.NewParameterDefinition("Damage", domain.DataTypeEnum, "NoDamage", false,
		mapping.EnumPair{HLA: "0", Game: "NoDamage"},
		mapping.EnumPair{HLA: "1", Game: "SlightDamage"},
		mapping.EnumPair{HLA: "3", Game: "Destroyed"},
	)
	m := scalar("DamageState", RPRUnsignedInt, damage)

	t.Run("mapped value", func(t *testing.T) {
		got, err := tr.Decode(Env{}, []byte{0, 0, 0, 3}, m)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if !domain.Equal(got[0], domain.Enum("Destroyed")) {
			t.Errorf("Decode() = %v, want Destroyed", got[0])
		}
	})

	t.Run("unmapped value falls back to default", func(t *testing.T) {
		got, err := tr.Decode(Env{}, []byte{0, 0, 0, 2}, m)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if !domain.Equal(got[0], domain.Enum("NoDamage")) {
			t.Errorf("Decode() = %v, want NoDamage", got[0])
		}
	})

	t.Run("outbound mapped", func(t *testing.T) {
		buf, err := tr.Encode(Env{}, []domain.Value{domain.Enum("SlightDamage")}, m)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if !bytes.Equal(buf, []byte{0, 0, 0, 1}) {
			t.Errorf("Encode() = %v", buf)
		}
	})

	t.Run("outbound unmapped is an error", func(t *testing.T) {
		if _, err := tr.Encode(Env{}, []domain.Value{domain.Enum("Vaporized")}, m); err == nil {
			t.Error("Encode() should not guess a value")
		}
	})
}

func TestRPRTranslator_EntityTypeToSeveralParameters(t *testing.T) {
	tr := NewRPRTranslator()
	et := types.NewEntityType(1, 1, 222, 2, 4, 6, 0)
	m := scalar("EntityType", RPREntityType,
		def("Entity Type", domain.DataTypeEnum),
		def("Entity Type Text", domain.DataTypeString),
	)

	got, err := tr.Decode(Env{}, et.Encode(), m)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !domain.Equal(got[0], domain.Enum("1.1.222.2.4.6.0")) {
		t.Errorf("param 0 = %v", got[0])
	}
	if !domain.Equal(got[1], domain.String("1.1.222.2.4.6.0")) {
		t.Errorf("param 1 = %v", got[1])
	}
}

func TestRPRTranslator_Array(t *testing.T) {
	tr := NewRPRTranslator()
	m := &mapping.OneToManyMapping{
		HLAName: "Stations",
		HLAType: RPRUnsignedShort,
		Array:   true,
		Params:  []mapping.ParameterDefinition{def("Stations", domain.DataTypeArray)},
	}

	in := domain.Array{Elem: domain.DataTypeUInt, Items: []domain.Value{domain.UInt(1), domain.UInt(513), domain.UInt(7)}}
	buf, err := tr.Encode(Env{}, []domain.Value{in}, m)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(buf, []byte{0, 1, 2, 1, 0, 7}) {
		t.Fatalf("Encode() = %v", buf)
	}

	got, err := tr.Decode(Env{}, buf, m)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !domain.Equal(got[0], in) {
		t.Errorf("Decode() = %v, want %v", got[0], in)
	}

	if _, err := tr.Decode(Env{}, buf[:5], m); err == nil {
		t.Error("Decode() with partial element should fail")
	}
}

func TestRPRTranslator_SpatialGroup(t *testing.T) {
	tr := NewRPRTranslator()
	m := &mapping.OneToManyMapping{
		HLAName: "Spatial",
		HLAType: RPRSpatial,
		Params: []mapping.ParameterDefinition{
			def("DeadReckoning", domain.DataTypeUInt),
			def("Frozen", domain.DataTypeBool),
			def("Location", domain.DataTypeVec3),
			def("Rotation", domain.DataTypeVec3),
			def("Velocity", domain.DataTypeVec3),
		},
	}
	if m.Shape() != mapping.ShapeGroup {
		t.Fatalf("Shape() = %v, want GROUP", m.Shape())
	}

	in := []domain.Value{
		domain.UInt(4),
		domain.Bool(true),
		domain.Vec3(mgl64.Vec3{1000.5, -2000.25, 30}),
		domain.Vec3(mgl64.Vec3{0.5, 1, 1.5}),
		domain.Vec3(mgl64.Vec3{10, 0, -1}),
	}

	buf, err := tr.Encode(Env{}, in, m)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(buf) != RPRSpatial.EncodedLength {
		t.Fatalf("Encode() produced %d bytes", len(buf))
	}

	got, err := tr.Decode(Env{}, buf, m)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for i := range in {
		if !domain.Equal(got[i], in[i]) {
			t.Errorf("component %d = %v, want %v", i, got[i], in[i])
		}
	}
}

func TestRPRTranslator_ActorReferences(t *testing.T) {
	tr := NewRPRTranslator()
	res := newFakeResolver()
	actor := uuid.New()
	eid := types.NewEntityIdentifier(1, 2, 3)
	res.put(eid, actor)

	m := scalar("Target", RPREntityIdentifier, def("Target", domain.DataTypeActor))
	env := Env{Actors: res}

	buf, err := tr.Encode(env, []domain.Value{domain.ActorRef(actor)}, m)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(buf, eid.Encode()) {
		t.Errorf("Encode() = %v, want %v", buf, eid.Encode())
	}

	got, err := tr.Decode(env, buf, m)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !domain.Equal(got[0], domain.ActorRef(actor)) {
		t.Errorf("Decode() = %v, want %v", got[0], actor)
	}

	unknown := types.NewEntityIdentifier(9, 9, 9).Encode()
	got, err = tr.Decode(env, unknown, m)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !domain.Equal(got[0], domain.ActorRef(uuid.Nil)) {
		t.Errorf("Decode() of unknown identifier = %v, want nil reference", got[0])
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(NewRPRTranslator())

	at, ok := reg.AttributeType("euler_angles_type")
	if !ok || at != RPREulerAngles {
		t.Fatalf("AttributeType() = %v, %v", at, ok)
	}
	if _, ok := reg.For(at); !ok {
		t.Error("For() did not find the RPR translator")
	}
	if _, ok := reg.For(mapping.AttributeType{Name: "EULER_ANGLES_TYPE", EncodedLength: 3}); ok {
		t.Error("For() matched a type with a different layout")
	}
	if _, ok := reg.AttributeType("QUATERNION"); ok {
		t.Error("AttributeType() found an unknown type")
	}
}
