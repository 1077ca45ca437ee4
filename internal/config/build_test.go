package config

import (
	"errors"
	"strings"
	"testing"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/ddm"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/gateway"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/rti"
	"hla-gateway/internal/translator"
)

func rprRegistry() *translator.Registry {
	return translator.NewRegistry(translator.NewRPRTranslator())
}

func loadSample(t *testing.T) *Document {
	t.Helper()
	doc, err := LoadDocument("testdata/platforms.yaml")
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	return doc
}

func TestBuild_Sample(t *testing.T) {
	b, err := Build(loadSample(t), rprRegistry())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !b.Messages.Has("WEAPON_FIRE") {
		t.Error("catalog misses WEAPON_FIRE")
	}
	if len(b.Objects) != 2 || len(b.Interactions) != 1 {
		t.Fatalf("objects/interactions = %d/%d, want 2/1", len(b.Objects), len(b.Interactions))
	}

	tank := b.Objects[0]
	if tank.Name() != "TankMapping" || tank.ActorType.FullName() != "Vehicles.Tank" {
		t.Errorf("tank mapping = %s %s", tank.Name(), tank.ActorType)
	}
	want := types.NewEntityType(1, 1, 222, 1, 1, 0, 0)
	if tank.EntityType == nil || *tank.EntityType != want {
		t.Errorf("EntityType = %v, want %v", tank.EntityType, want)
	}
	if tank.LocalOrRemote != mapping.LocalAndRemote || tank.DDMCalculatorName != "geo" {
		t.Errorf("direction/calculator = %s/%q", tank.LocalOrRemote, tank.DDMCalculatorName)
	}

	var sawSpecial, sawRequired bool
	for _, f := range tank.Mappings {
		switch f.HLAName {
		case mapping.MappingNameParameter:
			sawSpecial = f.Special
		case "WorldLocation":
			sawRequired = f.RequiredForHLA && !f.HLAType.IsUnknown()
		case "DamageState":
			if !f.Params[0].AllowUnmapped {
				t.Error("DamageState enum should allow unmapped values")
			}
		}
	}
	if !sawSpecial || !sawRequired {
		t.Errorf("special=%v required=%v", sawSpecial, sawRequired)
	}

	if aircraft := b.Objects[1]; aircraft.LocalOrRemote != mapping.RemoteOnly || aircraft.EntityType != nil {
		t.Errorf("aircraft mapping = %s et=%v", aircraft.LocalOrRemote, aircraft.EntityType)
	}

	if !b.DDMEnabled || len(b.Calculators) != 2 {
		t.Fatalf("ddm = %v with %d calculators", b.DDMEnabled, len(b.Calculators))
	}
	if b.Calculators[0].Usage != ddm.UsageSubscription || b.Calculators[1].Usage != ddm.UsagePublication {
		t.Errorf("usages = %s, %s", b.Calculators[0].Usage, b.Calculators[1].Usage)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown wire type",
			yaml:    "objects:\n  - actorType: A.B\n    class: X\n    fields:\n      - {hla: Speed, type: NOT_A_TYPE, params: [{name: s, type: float}]}\n",
			wantErr: "unknown wire type",
		},
		{
			name:    "unknown parameter type",
			yaml:    "messages:\n  - type: PING\n    params: [{name: p, type: quaternion}]\n",
			wantErr: "unknown type",
		},
		{
			name:    "bad entity type",
			yaml:    "objects:\n  - actorType: A.B\n    class: X\n    entityType: 1.x.3\n    fields: []\n",
			wantErr: "entity type",
		},
		{
			name:    "bad direction",
			yaml:    "interactions:\n  - message: PING\n    interaction: Ping\n    direction: SIDEWAYS\n    fields: []\n",
			wantErr: "unknown direction",
		},
		{
			name:    "bad actor type",
			yaml:    "objects:\n  - actorType: Vehicles.\n    class: X\n    fields: []\n",
			wantErr: "objects[0]",
		},
		{
			name: "enum default outside table",
			yaml: "objects:\n  - actorType: A.B\n    class: X\n    fields:\n      - hla: Kind\n        type: UNSIGNED_INT_TYPE\n" +
				"        params: [{name: k, type: enum, default: Other, enums: [{hla: '1', game: One}]}]\n",
			wantErr: "enumeration table",
		},
		{
			name:    "unknown calculator kind",
			yaml:    "ddm:\n  enabled: true\n  calculators: [{name: c, kind: hexagonal}]\n",
			wantErr: "unknown kind",
		},
		{
			name:    "duplicate message",
			yaml:    "messages:\n  - type: PING\n  - type: PING\n",
			wantErr: "messages[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}
			_, err = Build(doc, rprRegistry())
			if err == nil {
				t.Fatal("Build() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Build() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_CollectsAllErrors(t *testing.T) {
	doc := &Document{
		Messages: []MessageDoc{{Type: "PING", Params: []MessageParamDoc{{Name: "p", Type: "nope"}}}},
		Objects:  []ObjectDoc{{ActorType: "A.B", Class: "X", Direction: "UP"}},
	}
	_, err := Build(doc, rprRegistry())
	if err == nil {
		t.Fatal("Build() error = nil")
	}
	for _, part := range []string{"messages[0]", "objects[0]"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error %q misses %q", err, part)
		}
	}
}

func TestParseDocument(t *testing.T) {
	if _, err := ParseDocument([]byte("objects:\n  - actorType: A.B\n    klass: X\n")); err == nil {
		t.Error("unknown field accepted")
	}
	doc, err := ParseDocument(nil)
	if err != nil || len(doc.Objects) != 0 {
		t.Errorf("empty document = %+v, %v", doc, err)
	}
}

func TestDocument_MarshalRoundTrip(t *testing.T) {
	doc := loadSample(t)
	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if _, err := Build(again, rprRegistry()); err != nil {
		t.Errorf("Build() after round trip error = %v", err)
	}
}

func TestBundle_Install(t *testing.T) {
	b, err := Build(loadSample(t), rprRegistry())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	c := gateway.New(gateway.Context{
		Ambassador:  rti.NewLocalAmbassador(),
		Translators: rprRegistry(),
		Messages:    b.Messages,
	}, gateway.Options{SiteID: 1, ApplicationID: 1})

	if err := b.Install(c); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !c.IsDDMEnabled() {
		t.Error("DDM not enabled")
	}
	if got := len(c.ObjectMappings()); got != 2 {
		t.Errorf("ObjectMappings = %d, want 2", got)
	}
	if got := len(c.InteractionMappings()); got != 1 {
		t.Errorf("InteractionMappings = %d, want 1", got)
	}
	if _, ok := c.SubscriptionCalculators().Find("geo"); !ok {
		t.Error("geo calculator not installed")
	}
	if _, ok := c.PublicationCalculators().Find("space"); !ok {
		t.Error("space calculator not installed")
	}

	// a second install collides with the first one
	err = b.Install(c)
	if !errors.Is(err, gateway.ErrConfiguration) {
		t.Errorf("second Install() error = %v, want ErrConfiguration", err)
	}
	if _, ok := c.Messages().Spec(domain.MessageType("WEAPON_FIRE")); !ok {
		t.Error("message catalog lost WEAPON_FIRE")
	}
}
