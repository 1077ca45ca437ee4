package gateway

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/translator"
)

func vehicleMapping(dir mapping.LocalOrRemote) *mapping.ObjectToActor {
	et := tankEntity
	return &mapping.ObjectToActor{
		ActorType:             tankType,
		ObjectClassName:       groundVehicle,
		EntityType:            &et,
		EntityIDAttributeName: "EntityIdentifier",
		LocalOrRemote:         dir,
		Mappings: []mapping.OneToManyMapping{
			scalar("Speed", translator.RPRFloat, param("Speed", domain.DataTypeFloat)),
			scalar("Callsign", translator.RPRString, param("Callsign", domain.DataTypeString)),
			scalar("DamageState", translator.RPRUnsignedInt,
				mapping.NewParameterDefinition("Damage", domain.DataTypeEnum, "NoDamage", false,
					mapping.EnumPair{HLA: "0", Game: "NoDamage"},
					mapping.EnumPair{HLA: "1", Game: "Damaged"},
					mapping.EnumPair{HLA: "3", Game: "Destroyed"},
				)),
			scalar("Position", translator.RPRWorldCoordinate, param("Position", domain.DataTypeVec3)),
		},
	}
}

func actorMessage(t *testing.T, typ domain.MessageType, id uuid.UUID, params map[string]domain.Value) *domain.Message {
	t.Helper()
	msg := domain.NewActorMessage(typ, id, tankType)
	for name, v := range params {
		if err := msg.SetParam(name, v); err != nil {
			t.Fatalf("SetParam(%q) error = %v", name, err)
		}
	}
	return msg
}

func wantAttrs(t *testing.T, got map[string][]byte, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("attributes = %v, want exactly %v", keys(got), want)
	}
	for _, name := range want {
		if _, ok := got[name]; !ok {
			t.Errorf("attribute %q missing from %v", name, keys(got))
		}
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestOutbound_RoundTrip(t *testing.T) {
	sender := newTestComponent(t, Options{SiteID: 1, ApplicationID: 2})
	sender.register(t, vehicleMapping(mapping.LocalAndRemote))
	sender.connect(t)

	original := map[string]domain.Value{
		"Speed":    domain.Float(12.5),
		"Callsign": domain.String("Alpha-1"),
		"Damage":   domain.Enum("Damaged"),
		"Position": domain.Vec3(mgl64.Vec3{1000.5, -20.25, 3}),
	}
	sender.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, uuid.New(), original))

	updates := sender.amb.Updates()
	if len(updates) != 1 {
		t.Fatalf("sent %d updates, want 1", len(updates))
	}

	receiver := newTestComponent(t, Options{})
	receiver.register(t, vehicleMapping(mapping.LocalAndRemote))
	receiver.connect(t)
	receiver.discover(t, groundVehicle, updates[0].Name, updates[0].Attrs)

	if len(receiver.disp.msgs) != 1 {
		t.Fatalf("receiver dispatched %d messages, want 1", len(receiver.disp.msgs))
	}
	created := receiver.disp.msgs[0]
	for name, want := range original {
		wantParam(t, created, name, want)
	}

	eid := types.NewEntityIdentifier(1, 2, 1)
	if actor, ok := receiver.c.Runtime().ActorForEntityIdentifier(eid); !ok || actor != created.AboutActorID {
		t.Errorf("receiver does not know entity %s", eid)
	}
}

func TestOutbound_RegistersAndUpdates(t *testing.T) {
	env := newTestComponent(t, Options{SiteID: 1, ApplicationID: 2})
	m := vehicleMapping(mapping.LocalOnly)
	env.register(t, m)
	env.connect(t)

	id := uuid.New()
	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, id,
		map[string]domain.Value{"Speed": domain.Float(3)}))
	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorUpdated, id,
		map[string]domain.Value{"Speed": domain.Float(4)}))

	updates := env.amb.Updates()
	if len(updates) != 2 {
		t.Fatalf("sent %d updates, want 2", len(updates))
	}

	first := updates[0]
	if first.Name != id.String() || first.Class != groundVehicle {
		t.Errorf("registered %q of %q, want %q of %q", first.Name, first.Class, id, groundVehicle)
	}
	if string(first.Tag) != m.Name() {
		t.Errorf("tag = %q, want %q", first.Tag, m.Name())
	}
	wantAttrs(t, first.Attrs, "EntityIdentifier", "EntityType", "Speed", "DamageState")
	if eid := types.NewEntityIdentifier(1, 2, 1); !bytes.Equal(first.Attrs["EntityIdentifier"], eid.Encode()) {
		t.Errorf("EntityIdentifier = %v, want %s", first.Attrs["EntityIdentifier"], eid)
	}
	if !bytes.Equal(first.Attrs["EntityType"], tankEntity.Encode()) {
		t.Errorf("EntityType = %v, want %s", first.Attrs["EntityType"], tankEntity)
	}
	if !bytes.Equal(first.Attrs["DamageState"], encodeUint(0)) {
		t.Errorf("DamageState = %v, want the encoded default", first.Attrs["DamageState"])
	}

	second := updates[1]
	if second.Handle != first.Handle {
		t.Errorf("update went to handle %d, want %d", second.Handle, first.Handle)
	}
	wantAttrs(t, second.Attrs, "EntityIdentifier", "EntityType", "Speed")
	if !bytes.Equal(second.Attrs["Speed"], encodeFloat(4)) {
		t.Errorf("Speed = %v, want %v", second.Attrs["Speed"], encodeFloat(4))
	}
}

func TestOutbound_UnmappedEnumIsOmitted(t *testing.T) {
	env := newTestComponent(t, Options{})
	env.register(t, vehicleMapping(mapping.LocalOnly))
	env.connect(t)

	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, uuid.New(), map[string]domain.Value{
		"Speed":  domain.Float(1),
		"Damage": domain.Enum("Vaporized"),
	}))

	updates := env.amb.Updates()
	if len(updates) != 1 {
		t.Fatalf("sent %d updates, want 1", len(updates))
	}
	if _, ok := updates[0].Attrs["DamageState"]; ok {
		t.Error("unmapped enumeration value was encoded")
	}
	if _, ok := updates[0].Attrs["Speed"]; !ok {
		t.Error("other fields must still be sent")
	}
}

func TestOutbound_Ignored(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
		msg     *domain.Message
	}{
		{
			name: "not connected",
			msg:  domain.NewActorMessage(domain.MessageActorCreated, uuid.New(), tankType),
		},
		{
			name:    "actor type without local mapping",
			connect: true,
			msg:     domain.NewActorMessage(domain.MessageActorCreated, uuid.New(), fighterType),
		},
		{
			name:    "message type without mapping",
			connect: true,
			msg:     domain.NewDynamicMessage("CHAT"),
		},
		{
			name:    "delete of unknown actor",
			connect: true,
			msg:     domain.NewActorMessage(domain.MessageActorDeleted, uuid.New(), tankType),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestComponent(t, Options{})
			env.register(t, vehicleMapping(mapping.LocalOnly))
			if tt.connect {
				env.connect(t)
			}
			env.c.DispatchNetworkMessage(tt.msg)
			if len(env.amb.Updates()) != 0 || len(env.amb.Deletes()) != 0 || len(env.amb.Interactions()) != 0 {
				t.Error("message reached the federation")
			}
		})
	}
}

func TestOutbound_RemoteActorsAreNotEchoed(t *testing.T) {
	env := newTestComponent(t, Options{})
	env.register(t, vehicleMapping(mapping.LocalAndRemote))
	env.connect(t)

	env.discover(t, groundVehicle, "", map[string][]byte{"EntityType": tankEntity.Encode()})
	remote := env.disp.msgs[0].AboutActorID

	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorUpdated, remote,
		map[string]domain.Value{"Speed": domain.Float(9)}))
	env.c.DispatchNetworkMessage(domain.NewActorMessage(domain.MessageActorDeleted, remote, tankType))

	if len(env.amb.Updates()) != 0 || len(env.amb.Deletes()) != 0 {
		t.Error("remote actor was published back to the federation")
	}
	if _, ok := env.c.Runtime().ByActor(remote); !ok {
		t.Error("remote entry removed by a local delete")
	}
}

func TestOutbound_Delete(t *testing.T) {
	env := newTestComponent(t, Options{})
	env.register(t, vehicleMapping(mapping.LocalOnly))
	env.connect(t)

	id := uuid.New()
	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, id, nil))
	entry, ok := env.c.Runtime().ByActor(id)
	if !ok {
		t.Fatal("local actor not registered")
	}

	env.c.DispatchNetworkMessage(domain.NewActorMessage(domain.MessageActorDeleted, id, tankType))
	deletes := env.amb.Deletes()
	if len(deletes) != 1 || deletes[0] != entry.Handle {
		t.Errorf("Deletes() = %v, want [%d]", deletes, entry.Handle)
	}
	if _, ok := env.c.Runtime().EntityIdentifierForActor(id); ok || env.c.Runtime().Len() != 0 {
		t.Error("runtime state survived delete")
	}
}

func TestOutbound_NameReservation(t *testing.T) {
	env := newTestComponent(t, Options{ReserveNames: true})
	env.register(t, vehicleMapping(mapping.LocalOnly))
	env.connect(t)

	id := uuid.New()
	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, id,
		map[string]domain.Value{"Speed": domain.Float(1)}))
	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorUpdated, id,
		map[string]domain.Value{"Speed": domain.Float(2)}))

	if len(env.amb.Updates()) != 0 {
		t.Fatal("object registered before its name was reserved")
	}
	if env.c.QueuedRegistrations() != 1 {
		t.Fatalf("QueuedRegistrations() = %d, want 1", env.c.QueuedRegistrations())
	}

	env.tick()

	updates := env.amb.Updates()
	if len(updates) != 2 {
		t.Fatalf("sent %d updates after reservation, want 2", len(updates))
	}
	if updates[0].Name != id.String() {
		t.Errorf("instance name = %q, want %q", updates[0].Name, id)
	}
	if !bytes.Equal(updates[1].Attrs["Speed"], encodeFloat(2)) {
		t.Error("queued update was not sent in order")
	}
	if name, ok := env.c.Runtime().NameForActor(id); !ok || name != id.String() {
		t.Errorf("NameForActor() = %q, %v", name, ok)
	}
	if env.c.QueuedRegistrations() != 0 {
		t.Errorf("QueuedRegistrations() = %d after success", env.c.QueuedRegistrations())
	}
}

func TestOutbound_NameReservationFailed(t *testing.T) {
	env := newTestComponent(t, Options{ReserveNames: true})
	env.register(t, vehicleMapping(mapping.LocalOnly))
	env.connect(t)

	id := uuid.New()
	env.amb.RejectName(id.String())
	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, id, nil))
	env.tick()

	if len(env.amb.Updates()) != 0 {
		t.Error("object registered after a failed reservation")
	}
	if env.c.QueuedRegistrations() != 0 {
		t.Errorf("QueuedRegistrations() = %d, want 0", env.c.QueuedRegistrations())
	}
	if env.c.Runtime().IsReserving(id) || env.c.Runtime().Len() != 0 {
		t.Error("failed reservation left runtime state")
	}
	if env.amb.Pending() != 0 {
		t.Error("failed reservation was retried")
	}
}

func TestOutbound_ProvideAttributeValueUpdate(t *testing.T) {
	env := newTestComponent(t, Options{})
	env.register(t, vehicleMapping(mapping.LocalOnly))
	env.connect(t)

	actor := domain.NewActor(tankType, "t-34")
	_ = actor.SetProperty("Speed", domain.Float(7))
	_ = actor.SetProperty("Callsign", domain.String("Red-1"))
	env.actors[actor.ID] = actor

	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, actor.ID, nil))
	entry, ok := env.c.Runtime().ByActor(actor.ID)
	if !ok {
		t.Fatal("actor not registered")
	}

	if err := env.amb.RequestAttributeUpdate(entry.Handle); err != nil {
		t.Fatalf("RequestAttributeUpdate() error = %v", err)
	}
	env.tick()

	updates := env.amb.Updates()
	if len(updates) != 2 {
		t.Fatalf("sent %d updates, want 2", len(updates))
	}
	wantAttrs(t, updates[1].Attrs, "EntityIdentifier", "EntityType", "Speed", "Callsign", "DamageState")
}

func TestOutbound_SendInteraction(t *testing.T) {
	env := newTestComponent(t, Options{})
	if err := env.c.Messages().Register("FIRE",
		domain.ParamSpec{Name: "munition", Type: domain.DataTypeUInt},
		domain.ParamSpec{Name: "mappingName", Type: domain.DataTypeString},
	); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := env.c.RegisterMessageMapping(&mapping.InteractionToMessage{
		MessageType:     "FIRE",
		InteractionName: "WeaponFire",
		MappingName:     "FireMapping",
		LocalOrRemote:   mapping.LocalOnly,
		Mappings: []mapping.OneToManyMapping{
			scalar("MunitionType", translator.RPRUnsignedInt, param("munition", domain.DataTypeUInt)),
			{
				HLAName: mapping.MappingNameParameter,
				Special: true,
				Params:  []mapping.ParameterDefinition{param("mappingName", domain.DataTypeString)},
			},
		},
	}); err != nil {
		t.Fatalf("RegisterMessageMapping() error = %v", err)
	}
	env.connect(t)

	if !env.amb.InteractionPublished("WeaponFire") || env.amb.InteractionSubscribed("WeaponFire") {
		t.Fatal("local only interaction must be published and not subscribed")
	}

	msg, err := env.c.Messages().Create("FIRE")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := msg.SetParam("munition", domain.UInt(7)); err != nil {
		t.Fatalf("SetParam() error = %v", err)
	}
	env.c.DispatchNetworkMessage(msg)

	sent := env.amb.Interactions()
	if len(sent) != 1 {
		t.Fatalf("sent %d interactions, want 1", len(sent))
	}
	if sent[0].Class != "WeaponFire" || string(sent[0].Tag) != "FireMapping" {
		t.Errorf("interaction = %s tag %q", sent[0].Class, sent[0].Tag)
	}
	wantAttrs(t, sent[0].Params, "MunitionType")
	if !bytes.Equal(sent[0].Params["MunitionType"], encodeUint(7)) {
		t.Errorf("MunitionType = %v, want %v", sent[0].Params["MunitionType"], encodeUint(7))
	}
}

func TestComponent_MapUnloadedClearsRuntime(t *testing.T) {
	env := newTestComponent(t, Options{})
	env.register(t, vehicleMapping(mapping.LocalAndRemote))
	env.connect(t)

	env.discover(t, groundVehicle, "", map[string][]byte{"EntityType": tankEntity.Encode()})
	env.c.DispatchNetworkMessage(actorMessage(t, domain.MessageActorCreated, uuid.New(), nil))
	if env.c.Runtime().Len() != 2 {
		t.Fatalf("runtime has %d entries, want 2", env.c.Runtime().Len())
	}

	env.c.ProcessMessage(domain.NewSystemMessage(domain.MessageMapUnloaded))
	if env.c.Runtime().Len() != 0 {
		t.Errorf("runtime has %d entries after map unload", env.c.Runtime().Len())
	}
	if !env.c.IsConnected() {
		t.Error("map unload must not disconnect")
	}
}
