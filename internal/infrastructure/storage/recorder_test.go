package storage

import (
	"context"
	"testing"

	"hla-gateway/internal/rti"
)

const (
	vehicleClass = "BaseEntity.PhysicalEntity.Platform.GroundVehicle"
	fireClass    = "WeaponFire"
)

type callbackLog struct {
	kinds  []string
	names  []string
	values []int
}

func (c *callbackLog) DiscoverObjectInstance(_ rti.ObjectInstanceHandle, _ rti.ObjectClassHandle, name string) {
	c.kinds = append(c.kinds, "discover")
	c.names = append(c.names, name)
}

func (c *callbackLog) ReflectAttributeValues(_ rti.ObjectInstanceHandle, attrs rti.AttributeValueMap, _ []byte) {
	c.kinds = append(c.kinds, "reflect")
	c.values = append(c.values, len(attrs))
}

func (c *callbackLog) RemoveObjectInstance(rti.ObjectInstanceHandle, []byte) {
	c.kinds = append(c.kinds, "remove")
}

func (c *callbackLog) ReceiveInteraction(_ rti.InteractionClassHandle, params rti.ParameterValueMap, _ []byte) {
	c.kinds = append(c.kinds, "interaction")
	c.values = append(c.values, len(params))
}

func (c *callbackLog) ProvideAttributeValueUpdate(rti.ObjectInstanceHandle, []rti.AttributeHandle) {}
func (c *callbackLog) ObjectInstanceNameReservationSucceeded(string)                            {}
func (c *callbackLog) ObjectInstanceNameReservationFailed(string)                               {}

func subscribe(t *testing.T, amb rti.Ambassador) {
	t.Helper()
	class, err := amb.ObjectClassHandle(vehicleClass)
	if err != nil {
		t.Fatalf("ObjectClassHandle() error = %v", err)
	}
	speed, _ := amb.AttributeHandle(class, "Speed")
	marking, _ := amb.AttributeHandle(class, "Marking")
	if err := amb.SubscribeObjectClassAttributes(class, []rti.AttributeHandle{speed, marking}); err != nil {
		t.Fatalf("SubscribeObjectClassAttributes() error = %v", err)
	}
	fire, _ := amb.InteractionClassHandle(fireClass)
	if err := amb.SubscribeInteractionClass(fire); err != nil {
		t.Fatalf("SubscribeInteractionClass() error = %v", err)
	}
}

func TestRecorderAndPlayer(t *testing.T) {
	src := rti.NewLocalAmbassador()
	rec := NewRecorder(src, NewJournal(""))
	live := &callbackLog{}
	if err := rec.JoinFederation("fed", "gateway", live); err != nil {
		t.Fatalf("JoinFederation() error = %v", err)
	}
	subscribe(t, rec)

	h, err := src.DiscoverRemote(vehicleClass, "tank-1")
	if err != nil {
		t.Fatalf("DiscoverRemote() error = %v", err)
	}
	_ = src.ReflectRemote(h, map[string][]byte{"Speed": {1, 2}, "Marking": {3}, "Fuel": {9}}, []byte("tag"))
	_ = src.SendRemoteInteraction(fireClass, map[string][]byte{"MunitionType": {7}}, nil)
	_ = src.RemoveRemote(h, nil)
	if err := src.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	wantKinds := []string{"discover", "reflect", "interaction", "remove"}
	if len(live.kinds) != len(wantKinds) {
		t.Fatalf("live callbacks = %v, want %v", live.kinds, wantKinds)
	}

	j := rec.Journal()
	if j.Federation != "fed" {
		t.Errorf("journal federation = %q, want fed", j.Federation)
	}
	recs := j.Snapshot()
	if len(recs) != len(wantKinds) {
		t.Fatalf("journal records = %d, want %d", len(recs), len(wantKinds))
	}
	for i, r := range recs {
		if r.Kind.String() != wantKinds[i] {
			t.Errorf("record %d kind = %s, want %s", i, r.Kind, wantKinds[i])
		}
	}
	if recs[0].Class != vehicleClass || recs[0].Name != "tank-1" {
		t.Errorf("discover record = %+v", recs[0])
	}
	if len(recs[1].Values) != 2 || string(recs[1].Tag) != "tag" {
		t.Errorf("reflect record = %+v, want 2 subscribed values", recs[1])
	}
	if recs[2].Class != fireClass || recs[2].Values["MunitionType"][0] != 7 {
		t.Errorf("interaction record = %+v", recs[2])
	}

	dst := rti.NewLocalAmbassador()
	replayed := &callbackLog{}
	if err := dst.JoinFederation("fed", "replay", replayed); err != nil {
		t.Fatalf("JoinFederation() error = %v", err)
	}
	subscribe(t, dst)

	applied, err := NewPlayer(dst).Play(context.Background(), j, 0)
	if err != nil || applied != len(recs) {
		t.Fatalf("Play() = %d, %v, want %d", applied, err, len(recs))
	}
	_ = dst.Tick()

	if len(replayed.kinds) != len(wantKinds) {
		t.Fatalf("replayed callbacks = %v, want %v", replayed.kinds, wantKinds)
	}
	for i, k := range wantKinds {
		if replayed.kinds[i] != k {
			t.Errorf("replayed[%d] = %s, want %s", i, replayed.kinds[i], k)
		}
	}
	if replayed.names[0] != "tank-1" || replayed.values[0] != 2 || replayed.values[1] != 1 {
		t.Errorf("replayed names=%v values=%v", replayed.names, replayed.values)
	}
}

func TestPlayer_SkipsBrokenRecords(t *testing.T) {
	dst := rti.NewLocalAmbassador()
	if err := dst.JoinFederation("fed", "replay", &callbackLog{}); err != nil {
		t.Fatalf("JoinFederation() error = %v", err)
	}

	j := &Journal{Records: []Record{
		{Kind: RecordReflect, Instance: 99, Values: map[string][]byte{"Speed": {1}}},
		{Kind: RecordDiscover, Instance: 1, Class: vehicleClass, Name: "a"},
		{Kind: RecordRemove, Instance: 1},
		{Kind: RecordRemove, Instance: 1},
	}}
	applied, err := NewPlayer(dst).Play(context.Background(), j, 0)
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPlayer(dst).Play(ctx, j, 1); err == nil {
		t.Error("Play() with cancelled context error = nil")
	}
}
