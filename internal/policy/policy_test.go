package policy

import (
	"math/rand"
	"testing"
)

func TestCoastAlwaysSelectsConceptOne(t *testing.T) {
	sel := Coast()
	for i := 0; i < 10; i++ {
		act := sel(nil)
		if act.ConceptIndex == nil || *act.ConceptIndex != 1 {
			t.Fatalf("coast selected %v, want 1", act.ConceptIndex)
		}
	}
}

func TestRandomSelectsBothConcepts(t *testing.T) {
	sel := Random(rand.New(rand.NewSource(42)))

	seen := map[float64]int{}
	for i := 0; i < 100; i++ {
		act := sel(nil)
		if act.ConceptIndex == nil {
			t.Fatal("random returned nil concept index")
		}
		seen[*act.ConceptIndex]++
	}

	for _, want := range []float64{1, 2} {
		if seen[want] == 0 {
			t.Errorf("concept %v never selected in 100 draws", want)
		}
	}
	if len(seen) != 2 {
		t.Errorf("selected values %v, want only 1 and 2", seen)
	}
}

func TestPoliciesEmitConceptIndexForm(t *testing.T) {
	selectors := map[string]Selector{
		"coast":  Coast(),
		"random": Random(rand.New(rand.NewSource(3))),
	}
	for name, sel := range selectors {
		act := sel(nil)
		if act.ConceptIndex == nil {
			t.Errorf("%s: concept index absent", name)
		}
		if act.Command != nil {
			t.Errorf("%s: legacy command field set to %v", name, *act.Command)
		}
	}
}

func TestByName(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, name := range []string{"random", "coast"} {
		sel, err := ByName(name, rng)
		if err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
		}
		if sel == nil {
			t.Errorf("ByName(%q) returned nil selector", name)
		}
	}

	if _, err := ByName("drift", rng); err == nil {
		t.Error("ByName(drift) error = nil, want unknown policy error")
	}
}
