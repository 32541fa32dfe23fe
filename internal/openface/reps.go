// Package openface wraps face-embedding extraction with generic
// classifiers to train, test and predict identity labels for directories
// of images.
package openface

import (
	"image"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/dpglue/dpkit/internal/imutil"
)

// Rep is one face representation: the source image, the class token
// derived from its path, the embedding vector and the face box.
type Rep struct {
	Path  string    `json:"path"`
	Class string    `json:"class"`
	Rep   []float64 `json:"rep"`
	Pos   [4]int    `json:"pos"`
}

// Rect returns the face box as an image rectangle.
func (r Rep) Rect() image.Rectangle {
	return image.Rect(r.Pos[0], r.Pos[1], r.Pos[2], r.Pos[3])
}

// RepDB maps an image path to its representation. One JSON file per
// extraction run; several files merge into one DB for training.
type RepDB map[string]Rep

// ClassToken derives the class token of an image from its path: the name
// of the directory the image sits in.
func ClassToken(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// LoadRepDBs merges the representation DB files at the given paths.
func LoadRepDBs(paths []string) (RepDB, error) {
	merged := RepDB{}
	for _, p := range paths {
		var db RepDB
		if err := imutil.ReadJSON(p, &db); err != nil {
			return nil, err
		}
		for k, v := range db {
			merged[k] = v
		}
	}
	return merged, nil
}

// TrainingTable is a representation DB reshaped for fitting: one row per
// face, classes indexed by their position in the sorted token list.
type TrainingTable struct {
	X       [][]float64
	Y       []int
	Classes []string
}

// Mapping returns the class-token to class-index table persisted as the
// mapping file.
func (t TrainingTable) Mapping() map[string]int {
	m := make(map[string]int, len(t.Classes))
	for i, c := range t.Classes {
		m[c] = i
	}
	return m
}

// BuildTrainingTable groups a representation DB by class token. Tokens
// are indexed in sorted order so repeated runs produce the same mapping.
func BuildTrainingTable(db RepDB) TrainingTable {
	tokens := map[string]bool{}
	for _, r := range db {
		tokens[r.Class] = true
	}
	var classes []string
	for tok := range tokens {
		classes = append(classes, tok)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	paths := sortedPaths(db)
	table := TrainingTable{Classes: classes}
	for _, p := range paths {
		r := db[p]
		table.X = append(table.X, r.Rep)
		table.Y = append(table.Y, index[r.Class])
	}
	return table
}

// TestCase is one image's worth of test data: every face found in it,
// with the ground-truth class index from the mapping file.
type TestCase struct {
	Path  string
	Truth int
	Reps  [][]float64
	Pos   []image.Rectangle
}

// BuildTestCases groups a representation DB by image and resolves each
// image's class token through the mapping file. A token absent from the
// mapping is an error.
func BuildTestCases(db RepDB, mapping map[string]int) ([]TestCase, error) {
	byPath := map[string]*TestCase{}
	for _, p := range sortedPaths(db) {
		r := db[p]
		truth, ok := mapping[r.Class]
		if !ok {
			return nil, errors.Errorf("class token %q is not in the mapping file", r.Class)
		}
		c, ok := byPath[r.Path]
		if !ok {
			c = &TestCase{Path: r.Path, Truth: truth}
			byPath[r.Path] = c
		}
		c.Reps = append(c.Reps, r.Rep)
		c.Pos = append(c.Pos, r.Rect())
	}

	var cases []TestCase
	for _, p := range sortedKeys(byPath) {
		cases = append(cases, *byPath[p])
	}
	return cases, nil
}

func sortedPaths(db RepDB) []string {
	paths := make([]string, 0, len(db))
	for p := range db {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func sortedKeys(m map[string]*TestCase) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
