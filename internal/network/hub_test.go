package network

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"hla-gateway/internal/domain"
	"hla-gateway/pkg/api"
)

func tankUpdate(t *testing.T) *domain.Message {
	t.Helper()
	tank := domain.ActorType{Category: "Vehicles", Name: "Tank"}
	msg := domain.NewActorMessage(domain.MessageActorUpdated, uuid.New(), tank)
	msg.Name = "t1"
	msg.Source = "TankMapping"
	if err := msg.SetParam("Rotation", domain.Vec3(mgl64.Vec3{1, 2, 3})); err != nil {
		t.Fatalf("SetParam() error = %v", err)
	}
	if err := msg.SetParam("Speed", domain.Float(2.5)); err != nil {
		t.Fatalf("SetParam() error = %v", err)
	}
	return msg
}

func TestBroadcaster_SendMessage(t *testing.T) {
	b := NewBroadcaster()

	var handled []domain.MessageType
	b.Handle(func(msg *domain.Message) { handled = append(handled, msg.Type) })

	first := b.Register("first")
	second := b.Register("second")
	b.SetTick(7)

	msg := tankUpdate(t)
	b.SendMessage(msg)
	b.SendMessage(nil)

	if len(handled) != 1 || handled[0] != domain.MessageActorUpdated {
		t.Errorf("handlers saw %v, want one update", handled)
	}

	for name, ch := range map[string]chan api.StreamMessage{"first": first, "second": second} {
		select {
		case frame := <-ch:
			if frame.Type != "INFO_ACTOR_UPDATED" || frame.Tick != 7 {
				t.Errorf("%s: frame = %+v", name, frame)
			}
			if frame.AboutActorID != msg.AboutActorID.String() {
				t.Errorf("%s: AboutActorID = %q", name, frame.AboutActorID)
			}
			if frame.ActorType != "Vehicles.Tank" || frame.Source != "TankMapping" {
				t.Errorf("%s: ActorType = %q, Source = %q", name, frame.ActorType, frame.Source)
			}
		default:
			t.Errorf("%s: no frame delivered", name)
		}
	}
}

func TestBroadcaster_Subscribers(t *testing.T) {
	b := NewBroadcaster()

	old := b.Register("obs")
	fresh := b.Register("obs")
	if _, ok := <-old; ok {
		t.Error("re-register did not close the previous channel")
	}
	if !b.HasSubscriber("obs") || b.SubscriberCount() != 1 {
		t.Fatalf("HasSubscriber() = %v, SubscriberCount() = %d", b.HasSubscriber("obs"), b.SubscriberCount())
	}

	b.SendTo("obs", api.StreamMessage{Type: "RESULT"})
	b.SendTo("missing", api.StreamMessage{Type: "RESULT"})
	if got := <-fresh; got.Type != "RESULT" {
		t.Errorf("SendTo() delivered %+v", got)
	}

	for i := 0; i < 150; i++ {
		b.Broadcast(api.StreamMessage{Type: "FLOOD"})
	}
	if len(fresh) != cap(fresh) {
		t.Errorf("channel holds %d frames, want %d", len(fresh), cap(fresh))
	}

	b.Unregister("obs")
	b.Unregister("obs")
	if b.HasSubscriber("obs") {
		t.Error("subscriber still registered")
	}
}

func TestFrameParams(t *testing.T) {
	frame := Frame(tankUpdate(t), 1)

	want := []api.ParamView{
		{Name: "Rotation", Type: "vec3", Value: "1,2,3"},
		{Name: "Speed", Type: "float", Value: "2.5"},
	}
	if len(frame.Params) != len(want) {
		t.Fatalf("Params = %+v, want %+v", frame.Params, want)
	}
	for i := range want {
		if frame.Params[i] != want[i] {
			t.Errorf("Params[%d] = %+v, want %+v", i, frame.Params[i], want[i])
		}
	}
	if frame.SendingActorID != "" {
		t.Errorf("SendingActorID = %q, want empty", frame.SendingActorID)
	}
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		name    string
		in      api.ParamView
		want    domain.Value
		wantErr bool
	}{
		{name: "vec3", in: api.ParamView{Name: "p", Type: "vec3", Value: "1,2,3"}, want: domain.Vec3(mgl64.Vec3{1, 2, 3})},
		{name: "uint", in: api.ParamView{Name: "p", Type: "UINT", Value: "42"}, want: domain.UInt(42)},
		{name: "enum", in: api.ParamView{Name: "p", Type: "enum", Value: "Tank"}, want: domain.Enum("Tank")},
		{name: "unknown type", in: api.ParamView{Name: "p", Type: "matrix", Value: "1"}, wantErr: true},
		{name: "bad value", in: api.ParamView{Name: "p", Type: "bool", Value: "maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParam(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseParam() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !domain.Equal(got, tt.want) {
				t.Errorf("ParseParam() = %v, want %v", got, tt.want)
			}
		})
	}
}
