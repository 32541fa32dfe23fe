package openface

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dpglue/dpkit/internal/imutil"
)

func TestClassToken(t *testing.T) {
	if got := ClassToken(filepath.Join("data", "alice", "img1.png")); got != "alice" {
		t.Errorf("ClassToken = %q, want alice", got)
	}
}

func fakeDB() RepDB {
	return RepDB{
		"data/alice/1.png": {Path: "data/alice/1.png", Class: "alice", Rep: []float64{1, 0}, Pos: [4]int{0, 0, 4, 4}},
		"data/alice/2.png": {Path: "data/alice/2.png", Class: "alice", Rep: []float64{0.9, 0.1}, Pos: [4]int{0, 0, 4, 4}},
		"data/bob/1.png":   {Path: "data/bob/1.png", Class: "bob", Rep: []float64{0, 1}, Pos: [4]int{1, 1, 5, 5}},
	}
}

func TestBuildTrainingTable(t *testing.T) {
	table := BuildTrainingTable(fakeDB())

	if !reflect.DeepEqual(table.Classes, []string{"alice", "bob"}) {
		t.Fatalf("classes = %v", table.Classes)
	}
	if len(table.X) != 3 || len(table.Y) != 3 {
		t.Fatalf("table size = %d/%d, want 3/3", len(table.X), len(table.Y))
	}
	// rows follow sorted path order: alice, alice, bob
	if !reflect.DeepEqual(table.Y, []int{0, 0, 1}) {
		t.Errorf("targets = %v, want [0 0 1]", table.Y)
	}
	if m := table.Mapping(); m["alice"] != 0 || m["bob"] != 1 {
		t.Errorf("mapping = %v", m)
	}
}

func TestBuildTestCases(t *testing.T) {
	db := fakeDB()
	// second face in the same image groups into one case
	db["data/alice/1.png#2"] = Rep{Path: "data/alice/1.png", Class: "alice", Rep: []float64{0.8, 0.2}, Pos: [4]int{5, 5, 9, 9}}

	mapping := map[string]int{"alice": 0, "bob": 1}
	cases, err := BuildTestCases(db, mapping)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 3 {
		t.Fatalf("got %d cases, want 3", len(cases))
	}

	var grouped *TestCase
	for i := range cases {
		if cases[i].Path == "data/alice/1.png" {
			grouped = &cases[i]
		}
	}
	if grouped == nil {
		t.Fatal("missing case for data/alice/1.png")
	}
	if len(grouped.Reps) != 2 || len(grouped.Pos) != 2 {
		t.Errorf("grouped case has %d reps / %d boxes, want 2/2", len(grouped.Reps), len(grouped.Pos))
	}
	if grouped.Truth != 0 {
		t.Errorf("truth = %d, want 0", grouped.Truth)
	}
}

func TestBuildTestCasesUnknownToken(t *testing.T) {
	if _, err := BuildTestCases(fakeDB(), map[string]int{"alice": 0}); err == nil {
		t.Error("expected error for class token missing from mapping")
	}
}

func TestLoadRepDBsMerge(t *testing.T) {
	dir := t.TempDir()
	db := fakeDB()

	a := RepDB{"data/alice/1.png": db["data/alice/1.png"]}
	b := RepDB{"data/bob/1.png": db["data/bob/1.png"]}
	if err := imutil.WriteJSON(filepath.Join(dir, "a.json"), a); err != nil {
		t.Fatal(err)
	}
	if err := imutil.WriteJSON(filepath.Join(dir, "b.json"), b); err != nil {
		t.Fatal(err)
	}

	merged, err := LoadRepDBs([]string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")})
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 2 {
		t.Errorf("merged %d entries, want 2", len(merged))
	}
	if got := merged["data/bob/1.png"].Class; got != "bob" {
		t.Errorf("bob class = %q", got)
	}
}
