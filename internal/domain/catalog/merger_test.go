package catalog

import (
	"fmt"
	"testing"
)

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("gen-%d", g.n)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestNormalizeDefaults(t *testing.T) {
	it := Normalize(RawItem{}, SourceInventory, &seqIDs{})

	if it.ID != "gen-1" {
		t.Fatalf("expected generated id, got %q", it.ID)
	}
	if it.Name != "Unnamed Item" {
		t.Fatalf("expected default name, got %q", it.Name)
	}
	if it.Category != CategoryUncategorized {
		t.Fatalf("expected uncategorized, got %q", it.Category)
	}
	if it.Price != 0 || it.AvailableQuantity != 0 || it.ReservedQuantity != 0 {
		t.Fatalf("expected zero numerics, got %+v", it)
	}
	if it.Source != SourceInventory {
		t.Fatalf("expected inventory source, got %q", it.Source)
	}
}

func TestNormalizeKeepsValuesAndClampsNegatives(t *testing.T) {
	it := Normalize(RawItem{
		ID:                strPtr(" pmw-200 "),
		Name:              strPtr("Sony PMW-200"),
		Category:          strPtr("Audio-Mixer"),
		Price:             floatPtr(-5),
		AvailableQuantity: intPtr(3),
		ReservedQuantity:  intPtr(-1),
	}, SourcePredefined, &seqIDs{})

	if it.ID != "pmw-200" {
		t.Fatalf("expected trimmed id, got %q", it.ID)
	}
	if it.Category != CategoryAudioMixer {
		t.Fatalf("expected audio-mixer, got %q", it.Category)
	}
	if it.CategoryLabel != "Audio Mixer" {
		t.Fatalf("expected label Audio Mixer, got %q", it.CategoryLabel)
	}
	if it.Price != 0 || it.ReservedQuantity != 0 {
		t.Fatalf("expected negatives clamped, got %+v", it)
	}
	if it.AvailableQuantity != 3 {
		t.Fatalf("expected available 3, got %d", it.AvailableQuantity)
	}
}

func TestULIDGenIsOrdered(t *testing.T) {
	g := ulidGen{}
	a, b := g.New(), g.New()
	if len(a) != 26 || a == b {
		t.Fatalf("unexpected ulids %q %q", a, b)
	}
}

func TestMergePredefinedWinsIDTie(t *testing.T) {
	predefined := []Item{{ID: "cam-1", Name: "FX6", Source: SourcePredefined, AvailableQuantity: 2}}
	inventory := []Item{
		{ID: "cam-1", Name: "FX6 (inventory)", Source: SourceInventory, AvailableQuantity: 9},
		{ID: "tri-1", Name: "Sachtler", Source: SourceInventory},
	}

	res := Merge(predefined, inventory)

	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if res.Items[0].Source != SourcePredefined || res.Items[0].AvailableQuantity != 2 {
		t.Fatalf("expected predefined entry to win, got %+v", res.Items[0])
	}
	if len(res.Collisions) != 1 {
		t.Fatalf("expected 1 collision, got %d", len(res.Collisions))
	}
	c := res.Collisions[0]
	if c.Kind != CollisionID || c.Key != "cam-1" || !c.Dropped || c.Kept != SourcePredefined || c.Other != SourceInventory {
		t.Fatalf("unexpected collision %+v", c)
	}
}

func TestMergeDuplicateIDWithinSource(t *testing.T) {
	res := Merge(nil, []Item{
		{ID: "a", Name: "First", Source: SourceInventory},
		{ID: "a", Name: "Second", Source: SourceInventory},
	})

	if len(res.Items) != 1 || res.Items[0].Name != "First" {
		t.Fatalf("expected first entry kept, got %+v", res.Items)
	}
	if len(res.Collisions) != 1 || res.Collisions[0].Kind != CollisionID {
		t.Fatalf("expected id collision, got %+v", res.Collisions)
	}
}

func TestMergeNameCollisionKeepsBoth(t *testing.T) {
	res := Merge(
		[]Item{{ID: "a", Name: "Tripod", Source: SourcePredefined}},
		[]Item{{ID: "b", Name: "tripod", Source: SourceInventory}},
	)

	if len(res.Items) != 2 {
		t.Fatalf("expected both items kept, got %d", len(res.Items))
	}
	if len(res.Collisions) != 1 {
		t.Fatalf("expected 1 collision, got %d", len(res.Collisions))
	}
	c := res.Collisions[0]
	if c.Kind != CollisionName || c.Dropped || c.KeptID != "a" || c.OtherID != "b" {
		t.Fatalf("unexpected collision %+v", c)
	}
}

func TestMergeEmpty(t *testing.T) {
	res := Merge(nil, nil)
	if len(res.Items) != 0 || len(res.Collisions) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
