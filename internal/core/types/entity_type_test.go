package types

import (
	"bytes"
	"testing"
)

func TestEntityType_Fields(t *testing.T) {
	e := NewEntityType(1, 2, 225, 4, 5, 6, 7)

	if e.Kind() != 1 || e.Domain() != 2 || e.Country() != 225 || e.Category() != 4 ||
		e.Subcategory() != 5 || e.Specific() != 6 || e.Extra() != 7 {
		t.Errorf("unexpected fields: %s", e)
	}
	if got := e.String(); got != "1.2.225.4.5.6.7" {
		t.Errorf("String() = %q, want %q", got, "1.2.225.4.5.6.7")
	}
}

func TestEntityType_EncodeDecode(t *testing.T) {
	e := NewEntityType(1, 1, 222, 2, 4, 6, 0)

	buf := e.Encode()
	want := []byte{1, 1, 0, 222, 2, 4, 6, 0}
	if !bytes.Equal(buf, want) {
		t.Fatalf("Encode() = %v, want %v", buf, want)
	}

	got, err := DecodeEntityType(buf)
	if err != nil {
		t.Fatalf("DecodeEntityType() error = %v", err)
	}
	if got != e {
		t.Errorf("DecodeEntityType() = %v, want %v", got, e)
	}

	if _, err := DecodeEntityType(buf[:7]); err == nil {
		t.Error("DecodeEntityType() on short buffer should fail")
	}
}

func TestEntityType_Match(t *testing.T) {
	actual := NewEntityType(1, 2, 225, 1, 3, 0, 0)

	tests := []struct {
		name     string
		pattern  EntityType
		wantRank int
		wantOK   bool
	}{
		{name: "exact", pattern: actual, wantRank: 5, wantOK: true},
		{name: "kind and domain", pattern: NewEntityType(1, 2, 0, 0, 0, 0, 0), wantRank: 2, wantOK: true},
		{name: "kind only", pattern: NewEntityType(1, 0, 0, 0, 0, 0, 0), wantRank: 1, wantOK: true},
		{name: "all wildcard", pattern: NewEntityType(0, 0, 0, 0, 0, 0, 0), wantRank: 0, wantOK: true},
		{name: "conflicting category", pattern: NewEntityType(1, 2, 225, 2, 0, 0, 0), wantOK: false},
		{name: "wildcard then match", pattern: NewEntityType(1, 0, 225, 0, 0, 0, 0), wantRank: 1, wantOK: true},
		{name: "wildcard then conflict", pattern: NewEntityType(1, 0, 226, 0, 0, 0, 0), wantOK: false},
		{name: "more specific than actual", pattern: NewEntityType(1, 2, 225, 1, 3, 1, 0), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank, ok := tt.pattern.Match(actual)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && rank != tt.wantRank {
				t.Errorf("Match() rank = %v, want %v", rank, tt.wantRank)
			}
		})
	}
}

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		in      string
		want    EntityType
		wantErr bool
	}{
		{in: "1.1.222.2.4.6.0", want: NewEntityType(1, 1, 222, 2, 4, 6, 0)},
		{in: "1.2", want: NewEntityType(1, 2, 0, 0, 0, 0, 0)},
		{in: "1.2.65535", want: NewEntityType(1, 2, 65535, 0, 0, 0, 0)},
		{in: "", wantErr: true},
		{in: "256", wantErr: true},
		{in: "1.2.3.4.5.6.7.8", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntityType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEntityType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseEntityType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
