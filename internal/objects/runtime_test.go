package objects

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/domain"
	"hla-gateway/internal/mapping"
	"hla-gateway/internal/rti"
	"hla-gateway/internal/translator"
)

var _ translator.ActorResolver = (*RuntimeMappingInfo)(nil)

func TestRuntimeMappingInfo_PendingLifecycle(t *testing.T) {
	r := NewRuntimeMappingInfo()
	actor := uuid.New()

	if err := r.AddPending(7, "BaseEntity.Platform", "remote-7", actor); err != nil {
		t.Fatalf("AddPending() error = %v", err)
	}

	e, ok := r.ByHandle(7)
	if !ok || !e.Pending || e.Mapping != nil {
		t.Fatalf("ByHandle() = %+v, %v, want pending entry", e, ok)
	}

	m := &mapping.ObjectToActor{
		ActorType:       domain.ActorType{Category: "Vehicles", Name: "Tank"},
		ObjectClassName: "BaseEntity.Platform",
	}
	resolved, err := r.Resolve(7, m)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Pending || resolved.Mapping != m {
		t.Errorf("Resolve() = %+v", resolved)
	}
	if _, err := r.Resolve(7, m); !errors.Is(err, ErrConflict) {
		t.Errorf("second Resolve() error = %v, want ErrConflict", err)
	}

	if id, ok := r.ActorIDForName("remote-7"); !ok || id != actor {
		t.Errorf("ActorIDForName() = %v, %v", id, ok)
	}

	removed, ok := r.RemoveByHandle(7)
	if !ok || removed.ActorID != actor {
		t.Errorf("RemoveByHandle() = %+v, %v", removed, ok)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if _, ok := r.ActorIDForName("remote-7"); ok {
		t.Error("name survived removal")
	}
}

func TestRuntimeMappingInfo_Uniqueness(t *testing.T) {
	r := NewRuntimeMappingInfo()
	a, b := uuid.New(), uuid.New()

	if err := r.Put(&Entry{Handle: 1, ActorID: a}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tests := []struct {
		name  string
		entry *Entry
	}{
		{"same handle", &Entry{Handle: 1, ActorID: b}},
		{"same actor", &Entry{Handle: 2, ActorID: a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Put(tt.entry); !errors.Is(err, ErrConflict) {
				t.Errorf("Put() error = %v, want ErrConflict", err)
			}
		})
	}
}

func TestRuntimeMappingInfo_EntityIdentifiers(t *testing.T) {
	r := NewRuntimeMappingInfo()
	a, b := uuid.New(), uuid.New()
	eid := types.NewEntityIdentifier(1, 2, 3)

	if err := r.Put(&Entry{Handle: 4, ActorID: a}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := r.PutEntityID(eid, a); err != nil {
		t.Fatalf("PutEntityID() error = %v", err)
	}
	if err := r.PutEntityID(eid, b); !errors.Is(err, ErrConflict) {
		t.Errorf("PutEntityID() for another actor error = %v, want ErrConflict", err)
	}
	if err := r.PutEntityID(types.NilEntityIdentifier, b); !errors.Is(err, ErrConflict) {
		t.Errorf("PutEntityID(nil) error = %v, want ErrConflict", err)
	}

	if got, ok := r.ActorForEntityIdentifier(eid); !ok || got != a {
		t.Errorf("ActorForEntityIdentifier() = %v, %v", got, ok)
	}
	if got, ok := r.EntityIdentifierForActor(a); !ok || got != eid {
		t.Errorf("EntityIdentifierForActor() = %v, %v", got, ok)
	}
	if e, _ := r.ByActor(a); e.EntityID != eid {
		t.Errorf("entry EntityID = %v, want %v", e.EntityID, eid)
	}

	r.RemoveByActor(a)
	if _, ok := r.ActorForEntityIdentifier(eid); ok {
		t.Error("entity identifier survived removal")
	}
}

func TestRuntimeMappingInfo_Reservations(t *testing.T) {
	r := NewRuntimeMappingInfo()
	a := uuid.New()

	r.Reserve("tank-1", a)
	if !r.IsReserving(a) {
		t.Error("IsReserving() = false after Reserve")
	}

	id, ok := r.Unreserve("tank-1")
	if !ok || id != a {
		t.Errorf("Unreserve() = %v, %v", id, ok)
	}
	if _, ok := r.Unreserve("tank-1"); ok {
		t.Error("second Unreserve() succeeded")
	}

	r.Reserve("tank-2", a)
	r.RemoveByActor(a)
	if r.IsReserving(a) {
		t.Error("reservation survived actor removal")
	}
}

func TestRuntimeMappingInfo_PutName(t *testing.T) {
	r := NewRuntimeMappingInfo()
	a, b := uuid.New(), uuid.New()

	if err := r.PutName("tank", a); err != nil {
		t.Fatalf("PutName() error = %v", err)
	}
	if err := r.PutName("tank", b); !errors.Is(err, ErrConflict) {
		t.Errorf("PutName() error = %v, want ErrConflict", err)
	}
	if err := r.PutName("tank-renamed", a); err != nil {
		t.Fatalf("PutName() rename error = %v", err)
	}
	if _, ok := r.ActorIDForName("tank"); ok {
		t.Error("old name still resolves")
	}
	if name, _ := r.NameForActor(a); name != "tank-renamed" {
		t.Errorf("NameForActor() = %q", name)
	}
}

func TestRuntimeMappingInfo_EntriesSorted(t *testing.T) {
	r := NewRuntimeMappingInfo()
	for _, h := range []uint64{9, 3, 5} {
		if err := r.AddPending(rti.ObjectInstanceHandle(h), "C", "", uuid.New()); err != nil {
			t.Fatal(err)
		}
	}
	entries := r.Entries()
	if len(entries) != 3 || entries[0].Handle != 3 || entries[2].Handle != 9 {
		t.Errorf("Entries() = %+v", entries)
	}
}
