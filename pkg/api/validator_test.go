package api

import (
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload Validator
		wantErr bool
	}{
		{name: "interest", payload: InterestPayload{X: 1, Y: 2}},
		{name: "interest NaN", payload: InterestPayload{X: math.NaN()}, wantErr: true},
		{name: "interest Inf", payload: InterestPayload{Z: math.Inf(1)}, wantErr: true},
		{
			name: "actor",
			payload: ActorPayload{
				ActorType: "Vehicles.Tank",
				Props:     []ParamView{{Name: "Speed", Type: "float", Value: "3"}},
			},
		},
		{name: "actor without type", payload: ActorPayload{Name: "t1"}, wantErr: true},
		{
			name: "actor duplicate prop",
			payload: ActorPayload{
				ActorType: "Vehicles.Tank",
				Props: []ParamView{
					{Name: "Speed", Type: "float", Value: "3"},
					{Name: "Speed", Type: "float", Value: "4"},
				},
			},
			wantErr: true,
		},
		{
			name: "actor prop without type",
			payload: ActorPayload{
				ActorType: "Vehicles.Tank",
				Props:     []ParamView{{Name: "Speed", Value: "3"}},
			},
			wantErr: true,
		},
		{name: "delete", payload: ActorRefPayload{ActorID: "a"}},
		{name: "delete without id", payload: ActorRefPayload{}, wantErr: true},
		{name: "message", payload: MessagePayload{Type: "WEAPON_FIRE"}},
		{name: "message without type", payload: MessagePayload{}, wantErr: true},
		{
			name:    "message unnamed param",
			payload: MessagePayload{Type: "WEAPON_FIRE", Params: []ParamView{{Type: "uint"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
