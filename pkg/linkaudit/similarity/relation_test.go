package similarity

import "testing"

func TestNewRelationSorts(t *testing.T) {
	rel := NewRelation([]Neighbor{{"x", 0.2}, {"y", 0.9}, {"z", 0.5}})
	if rel[0].URL != "y" || rel[1].URL != "z" || rel[2].URL != "x" {
		t.Errorf("unexpected order %+v", rel)
	}
	if s, ok := rel.Score("z"); !ok || s != 0.5 {
		t.Errorf("Score(z) = %v, %v", s, ok)
	}
	if above := rel.Above(0.5); len(above) != 2 {
		t.Errorf("Above(0.5) = %+v", above)
	}
}

func TestPairsDeduplicate(t *testing.T) {
	rs := NewRelations()
	rs.Add("a", Neighbor{"b", 0.9}, Neighbor{"c", 0.4})
	rs.Add("b", Neighbor{"a", 0.9}, Neighbor{"c", 0.8})
	rs.Add("c", Neighbor{"b", 0.8})

	pairs := rs.Pairs(0.5)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %+v", pairs)
	}
	if pairs[0] != (Pair{A: "a", B: "b", Score: 0.9}) {
		t.Errorf("unexpected first pair %+v", pairs[0])
	}
	if pairs[1] != (Pair{A: "b", B: "c", Score: 0.8}) {
		t.Errorf("unexpected second pair %+v", pairs[1])
	}
}

func TestRelationsKeepInsertionOrder(t *testing.T) {
	rs := NewRelations()
	rs.Add("z")
	rs.Add("a")
	rs.Add("z", Neighbor{"a", 1})
	got := rs.Sources()
	if len(got) != 2 || got[0] != "z" || got[1] != "a" {
		t.Errorf("unexpected order %v", got)
	}
}
