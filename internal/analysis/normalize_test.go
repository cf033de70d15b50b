package analysis

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-12

func entity(name string, stats map[string]float64) Entity {
	return Entity{Name: name, Source: "test", Stats: stats}
}

func goalsPopulation() *Population {
	return &Population{
		Key:        "test",
		Attributes: []string{"Goals", "Age"},
		Entities: []Entity{
			entity("A", map[string]float64{"Goals": 3, "Age": 25}),
			entity("B", map[string]float64{"Goals": 7, "Age": 25}),
			entity("C", map[string]float64{"Goals": 10, "Age": 25}),
		},
	}
}

func TestComputeRange(t *testing.T) {
	pop := goalsPopulation()
	pop.Entities = append(pop.Entities,
		entity("NaN", map[string]float64{"Goals": math.NaN()}),
		entity("None", map[string]float64{}),
	)

	r, err := ComputeRange(pop, "Goals")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Min != 3 || r.Max != 10 {
		t.Fatalf("range = %+v, want {3 10}", r)
	}
}

func TestComputeRangeEmpty(t *testing.T) {
	_, err := ComputeRange(goalsPopulation(), "xG")
	var emptyErr *EmptyRangeError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyRangeError, got %v", err)
	}
	if emptyErr.Attribute != "xG" || emptyErr.Population != "test" {
		t.Errorf("unexpected error fields: %+v", emptyErr)
	}

	if _, err := ComputeRange(nil, "xG"); !errors.As(err, &emptyErr) {
		t.Errorf("nil population: expected EmptyRangeError, got %v", err)
	}
}

func TestNormalizeValueGoalsScenario(t *testing.T) {
	r, err := ComputeRange(goalsPopulation(), "Goals")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		value float64
		want  float64
	}{
		{3, 0},
		{7, 4.0 / 7.0},
		{10, 1},
	}
	for _, tt := range tests {
		if got := NormalizeValue(tt.value, r); math.Abs(got-tt.want) > eps {
			t.Errorf("NormalizeValue(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestNormalizeValueBoundsAndMonotonic(t *testing.T) {
	ranges := []Range{{0, 1}, {3, 10}, {-5, 5}, {0.001, 0.002}, {-100, -20}, {0, 1e6}}
	for _, r := range ranges {
		if got := NormalizeValue(r.Min, r); got != 0 {
			t.Errorf("%+v: min normalizes to %v", r, got)
		}
		if got := NormalizeValue(r.Max, r); math.Abs(got-1) > eps {
			t.Errorf("%+v: max normalizes to %v", r, got)
		}

		prev := -1.0
		const steps = 50
		for i := 0; i <= steps; i++ {
			v := r.Min + r.Span()*float64(i)/steps
			got := NormalizeValue(v, r)
			if got < -eps || got > 1+eps {
				t.Fatalf("%+v: NormalizeValue(%v) = %v outside [0,1]", r, v, got)
			}
			if got < prev {
				t.Fatalf("%+v: not monotonic at %v (%v < %v)", r, v, got, prev)
			}
			prev = got
		}
	}
}

func TestNormalizeValueHugeRange(t *testing.T) {
	for _, r := range []Range{{-1e308, 1e308}, {-math.MaxFloat64, math.MaxFloat64}} {
		if !math.IsInf(r.Span(), 1) {
			t.Fatalf("%+v: span is expected to overflow", r)
		}
		tests := []struct {
			v, want float64
		}{
			{r.Min, 0},
			{0, 0.5},
			{r.Max, 1},
		}
		for _, tt := range tests {
			if got := NormalizeValue(tt.v, r); math.IsNaN(got) || math.Abs(got-tt.want) > eps {
				t.Errorf("%+v: NormalizeValue(%v) = %v, want %v", r, tt.v, got, tt.want)
			}
		}
	}
}

func TestNormalizeValueDegenerate(t *testing.T) {
	r := Range{Min: 25, Max: 25}
	for _, v := range []float64{25, 0, -1e9, 1e9, 26} {
		if got := NormalizeValue(v, r); got != 0 {
			t.Errorf("NormalizeValue(%v, %+v) = %v, want 0", v, r, got)
		}
	}
}

func TestNormalizeEntityConstantAge(t *testing.T) {
	pop := goalsPopulation()
	norm, err := NormalizeEntity(pop.Entities[1], []string{"Age"}, pop, NoClamp)
	if err != nil {
		t.Fatalf("constant column must not fail: %v", err)
	}
	if norm["Age"] != 0 {
		t.Errorf("Age = %v, want 0", norm["Age"])
	}
}

func TestNormalizeEntityMissingAttribute(t *testing.T) {
	pop := &Population{
		Key:        "test",
		Attributes: []string{"Goals", "Assists", "xG"},
		Entities: []Entity{
			entity("A", map[string]float64{"Goals": 0, "Assists": 2, "xG": 1.5}),
			entity("B", map[string]float64{"Goals": 10, "Assists": 4, "xG": 0.5}),
			entity("NoXG", map[string]float64{"Goals": 5, "Assists": 3}),
		},
	}

	norm, err := NormalizeEntity(pop.Entities[2], pop.Attributes, pop, NoClamp)
	if err == nil {
		t.Fatal("expected an error for missing xG")
	}

	missing := MissingAttributes(err)
	if len(missing) != 1 || missing[0].Attribute != "xG" || missing[0].Entity != "NoXG" {
		t.Fatalf("missing = %+v, want one entry for xG", missing)
	}
	var target *MissingAttributeError
	if !errors.As(err, &target) {
		t.Error("errors.As should find the MissingAttributeError")
	}

	if !math.IsNaN(norm["xG"]) {
		t.Errorf("xG = %v, want NaN sentinel", norm["xG"])
	}
	if math.Abs(norm["Goals"]-0.5) > eps {
		t.Errorf("Goals = %v, want 0.5", norm["Goals"])
	}
	if math.Abs(norm["Assists"]-0.5) > eps {
		t.Errorf("Assists = %v, want 0.5", norm["Assists"])
	}
}

func TestNormalizeEntityEmptyRange(t *testing.T) {
	pop := goalsPopulation()
	norm, err := NormalizeEntity(
		entity("X", map[string]float64{"Goals": 7, "xA": 1}),
		[]string{"Goals", "xA"}, pop, NoClamp)

	if got := EmptyRanges(err); len(got) != 1 || got[0].Attribute != "xA" {
		t.Fatalf("EmptyRanges = %+v, want xA", got)
	}
	if len(MissingAttributes(err)) != 0 {
		t.Error("entity has xA, it must not be reported missing")
	}
	if !math.IsNaN(norm["xA"]) {
		t.Errorf("xA = %v, want NaN", norm["xA"])
	}
	if math.Abs(norm["Goals"]-4.0/7.0) > eps {
		t.Errorf("Goals = %v", norm["Goals"])
	}
}

func TestNormalizeCrossPopulationClampPolicy(t *testing.T) {
	ref := goalsPopulation() // Goals in [3, 10]
	outsider := entity("Outsider", map[string]float64{"Goals": 17})
	below := entity("Below", map[string]float64{"Goals": 0})

	norm, err := NormalizeEntity(outsider, []string{"Goals"}, ref, NoClamp)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(norm["Goals"]-2) > eps {
		t.Errorf("unclamped = %v, want 2", norm["Goals"])
	}

	norm, _ = NormalizeEntity(outsider, []string{"Goals"}, ref, ClampUnit)
	if norm["Goals"] != 1 {
		t.Errorf("clamped = %v, want 1", norm["Goals"])
	}

	norm, _ = NormalizeEntity(below, []string{"Goals"}, ref, NoClamp)
	if norm["Goals"] >= 0 {
		t.Errorf("unclamped below range = %v, want negative", norm["Goals"])
	}
	norm, _ = NormalizeEntity(below, []string{"Goals"}, ref, ClampUnit)
	if norm["Goals"] != 0 {
		t.Errorf("clamped below range = %v, want 0", norm["Goals"])
	}
}

func TestClamp01KeepsNaN(t *testing.T) {
	if !math.IsNaN(Clamp01(math.NaN())) {
		t.Error("Clamp01(NaN) must stay NaN")
	}
	if Clamp01(-0.2) != 0 || Clamp01(1.3) != 1 || Clamp01(0.4) != 0.4 {
		t.Error("Clamp01 bounds")
	}
}

func TestMergeIdempotence(t *testing.T) {
	pop := &Population{
		Key:        "EPL/24-25",
		Attributes: []string{"Goals", "xG"},
		Entities: []Entity{
			entity("A", map[string]float64{"Goals": 1, "xG": 0.4}),
			entity("B", map[string]float64{"Goals": 12, "xG": 9.1}),
			entity("C", map[string]float64{"Goals": 6, "xG": 7.3}),
		},
	}
	attrs := pop.Attributes

	plain, err := NormalizeEntity(pop.Entities[2], attrs, pop, NoClamp)
	if err != nil {
		t.Fatal(err)
	}
	merged, err := NormalizeEntity(pop.Entities[2], attrs, MergePopulations(pop, pop), NoClamp)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range attrs {
		if plain[a] != merged[a] {
			t.Errorf("%s: plain %v != merged %v", a, plain[a], merged[a])
		}
	}

	if ref := ReferencePopulation(pop, pop); ref != pop {
		t.Error("identical populations must not be merged")
	}
}

func TestMergePopulationsUnion(t *testing.T) {
	a := &Population{Key: "a", Attributes: []string{"Goals"}, Entities: []Entity{entity("X", map[string]float64{"Goals": 2})}}
	b := &Population{Key: "b", Attributes: []string{"Goals", "xG"}, Entities: []Entity{
		entity("X", map[string]float64{"Goals": 20, "xG": 3}),
	}}

	m := MergePopulations(a, b, a)
	if len(m.Entities) != 2 {
		t.Fatalf("entities = %d, want 2 (duplicate names kept across populations)", len(m.Entities))
	}
	if len(m.Attributes) != 2 || m.Attributes[0] != "Goals" || m.Attributes[1] != "xG" {
		t.Errorf("attributes = %v", m.Attributes)
	}
	r, err := ComputeRange(m, "Goals")
	if err != nil || r.Min != 2 || r.Max != 20 {
		t.Errorf("merged range = %+v, %v", r, err)
	}
	if ref := ReferencePopulation(a, b); ref.Key != "a + b" {
		t.Errorf("reference key = %q", ref.Key)
	}

	if got := CommonAttributes(a, b); len(got) != 1 || got[0] != "Goals" {
		t.Errorf("CommonAttributes = %v", got)
	}
}
