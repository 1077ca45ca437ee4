package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hla-gateway/internal/config"
	"hla-gateway/internal/infrastructure/storage"
)

const tankDoc = `objects:
  - name: TankMapping
    actorType: Vehicles.Tank
    class: BaseEntity.PhysicalEntity.Platform.GroundVehicle
    fields:
      - hla: EntityType
        type: ENTITY_TYPE
        params: [{name: Kind, type: string}]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestRunValidate(t *testing.T) {
	var out bytes.Buffer
	if err := runValidate(&out, "../../configs/platforms.yaml"); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	for _, want := range []string{"TankMapping", "FireMapping", "calculators=2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary misses %q:\n%s", want, out.String())
		}
	}

	bad := writeFile(t, "bad.yaml", "objects:\n  - actorType: A.B\n    class: X\n    direction: UP\n    fields: []\n")
	if err := runValidate(&out, bad); err == nil {
		t.Error("runValidate() accepted an invalid document")
	}
}

func TestRunImport(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	doc := writeFile(t, "tanks.yaml", tankDoc)

	var out bytes.Buffer
	for i := 0; i < 2; i++ {
		if err := runImport(ctx, &out, dbPath, doc, "", "test"); err != nil {
			t.Fatalf("runImport() error = %v", err)
		}
	}
	if !strings.Contains(out.String(), "imported tanks version 2") {
		t.Errorf("output = %q", out.String())
	}

	db, store, err := openCatalog(ctx, dbPath)
	if err != nil {
		t.Fatalf("openCatalog() error = %v", err)
	}
	defer db.Close()

	loaded, err := loadDocument(ctx, sourceFlags{name: "tanks", version: 1}, store)
	if err != nil {
		t.Fatalf("loadDocument() error = %v", err)
	}
	if len(loaded.Objects) != 1 || loaded.Objects[0].Name != "TankMapping" {
		t.Errorf("loaded document = %+v", loaded)
	}

	if _, err := loadDocument(ctx, sourceFlags{file: doc, name: "tanks"}, store); err == nil {
		t.Error("file and catalog sources accepted together")
	}
}

func TestRunReplay(t *testing.T) {
	const class = "BaseEntity.PhysicalEntity.Platform.GroundVehicle"
	journal := &storage.Journal{
		Federation: "TrainingFed",
		Timestamp:  1767225600,
		Records: []storage.Record{
			{Kind: storage.RecordDiscover, Instance: 11, Class: class, Name: "tank-1"},
			{Kind: storage.RecordReflect, Instance: 11, Values: map[string][]byte{"EntityType": {1, 1, 0, 222, 1, 1, 0, 0}}},
			{Kind: storage.RecordReflect, Instance: 99, Values: map[string][]byte{"EntityType": {1}}},
		},
	}
	path, err := storage.NewJournalService(t.TempDir()).Save(journal)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out bytes.Buffer
	err = runReplay(context.Background(), &out, config.Load(),
		sourceFlags{file: writeFile(t, "tanks.yaml", tankDoc)}, path, 0, 2)
	if err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}

	var report struct {
		Records int `json:"records"`
		Applied int `json:"applied"`
		Actors  []struct {
			Type   string `json:"type"`
			Name   string `json:"name"`
			Remote bool   `json:"remote"`
		} `json:"actors"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out.String())
	}
	if report.Records != 3 || report.Applied != 2 {
		t.Errorf("records/applied = %d/%d, want 3/2", report.Records, report.Applied)
	}
	if len(report.Actors) != 1 || report.Actors[0].Type != "Vehicles.Tank" || !report.Actors[0].Remote {
		t.Errorf("actors = %+v", report.Actors)
	}
}
