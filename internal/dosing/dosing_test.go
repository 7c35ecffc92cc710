package dosing

import (
	"math"
	"testing"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

func jevity() internal.ProductRecord {
	return internal.ProductRecord{
		Name:            "Jevity 1.5",
		Density:         1.5,
		ProteinPerLiter: 63.8,
		Category:        internal.CategoryFormula,
	}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestGoalsFromWeight(t *testing.T) {
	kcal, protein := GoalsFromWeight(70, 25, 1.2)
	if kcal != 1750 {
		t.Fatalf("kcal=%d", kcal)
	}
	if protein != 84 {
		t.Fatalf("protein=%d", protein)
	}
}

func TestComputeContinuous(t *testing.T) {
	result, err := Compute(internal.DoseRequest{
		TargetKcal:    1800,
		TargetProtein: 100,
		Product:       jevity(),
		Method:        internal.MethodContinuous,
		HoursPerDay:   24,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.RateMlPerHr != 50 {
		t.Fatalf("rate=%d", result.RateMlPerHr)
	}
	if result.ActualVolumeMl != 1200 {
		t.Fatalf("volume=%v", result.ActualVolumeMl)
	}
	if !approx(result.ProteinProvided, 76.56) {
		t.Fatalf("proteinProvided=%v", result.ProteinProvided)
	}
	if !approx(result.ProteinGap, 23.44) {
		t.Fatalf("proteinGap=%v", result.ProteinGap)
	}
	if result.GoalMet {
		t.Fatalf("goal should not be met")
	}
	if len(result.Supplements) != 2 {
		t.Fatalf("supplements: %+v", result.Supplements)
	}
	if !approx(result.Supplements[0].Amount, 23.44/20) {
		t.Fatalf("packets=%v", result.Supplements[0].Amount)
	}
	if !approx(result.Supplements[1].Amount, 23.44/6) {
		t.Fatalf("scoops=%v", result.Supplements[1].Amount)
	}
}

func TestComputeRoundsHalvesUp(t *testing.T) {
	// 1500 kcal at density 1.0 over 24h is exactly 62.5 mL/hr.
	product := internal.ProductRecord{
		Name:            "Osmolite 1.0",
		Density:         1.0,
		ProteinPerLiter: 44.3,
		Category:        internal.CategoryFormula,
	}
	result, err := Compute(internal.DoseRequest{
		TargetKcal:    1500,
		TargetProtein: 60,
		Product:       product,
		Method:        internal.MethodContinuous,
		HoursPerDay:   24,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.RateMlPerHr != 65 {
		t.Fatalf("rate=%d want 65", result.RateMlPerHr)
	}
}

func TestComputeBolus(t *testing.T) {
	result, err := Compute(internal.DoseRequest{
		TargetKcal:    1800,
		TargetProtein: 100,
		Product:       jevity(),
		Method:        internal.MethodBolus,
		FeedsPerDay:   5,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.BolusMl != 240 {
		t.Fatalf("bolus=%d", result.BolusMl)
	}
	if result.ActualVolumeMl != 1200 {
		t.Fatalf("volume=%v", result.ActualVolumeMl)
	}
}

func TestComputeMedicationCalories(t *testing.T) {
	result, err := Compute(internal.DoseRequest{
		TargetKcal:      1800,
		PropofolRate:    20,
		ClevidipineRate: 5,
		Product:         jevity(),
		Method:          internal.MethodContinuous,
		HoursPerDay:     24,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !approx(result.MedKcal, 768) {
		t.Fatalf("medKcal=%v", result.MedKcal)
	}
	if !approx(result.NetKcal, 1032) {
		t.Fatalf("netKcal=%v", result.NetKcal)
	}
	// 1032 / 1.5 = 688 mL; 688/24 = 28.67 → rounds to 30 mL/hr.
	if result.RateMlPerHr != 30 {
		t.Fatalf("rate=%d", result.RateMlPerHr)
	}
}

func TestComputeZeroRateCorrection(t *testing.T) {
	// 4.5 kcal at 1.5 kcal/mL = 3 mL over 24h: rounds to 0, corrected to 5.
	result, err := Compute(internal.DoseRequest{
		TargetKcal:  4.5,
		Product:     jevity(),
		Method:      internal.MethodContinuous,
		HoursPerDay: 24,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.RateMlPerHr != 5 {
		t.Fatalf("rate=%d", result.RateMlPerHr)
	}

	result, err = Compute(internal.DoseRequest{
		TargetKcal:  4.5,
		Product:     jevity(),
		Method:      internal.MethodBolus,
		FeedsPerDay: 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.BolusMl != 10 {
		t.Fatalf("bolus=%d", result.BolusMl)
	}
}

func TestComputeMedicationExceedsTarget(t *testing.T) {
	// 768 med kcal against a 500 kcal goal: nothing to infuse, no correction.
	result, err := Compute(internal.DoseRequest{
		TargetKcal:      500,
		PropofolRate:    20,
		ClevidipineRate: 5,
		Product:         jevity(),
		Method:          internal.MethodContinuous,
		HoursPerDay:     24,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.NetKcal != 0 {
		t.Fatalf("netKcal=%v", result.NetKcal)
	}
	if result.RateMlPerHr != 0 || result.ActualVolumeMl != 0 {
		t.Fatalf("rate=%d volume=%v", result.RateMlPerHr, result.ActualVolumeMl)
	}
}

func TestComputeZeroDensityGuard(t *testing.T) {
	product := jevity()
	product.Density = 0

	result, err := Compute(internal.DoseRequest{
		TargetKcal:  1200,
		Product:     product,
		Method:      internal.MethodContinuous,
		HoursPerDay: 24,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Density falls back to 1.0 kcal/mL: 1200 mL / 24 h = 50 mL/hr.
	if result.RateMlPerHr != 50 {
		t.Fatalf("rate=%d", result.RateMlPerHr)
	}
}

func TestComputeGoalMet(t *testing.T) {
	result, err := Compute(internal.DoseRequest{
		TargetKcal:    1800,
		TargetProtein: 70,
		Product:       jevity(),
		Method:        internal.MethodContinuous,
		HoursPerDay:   24,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.GoalMet {
		t.Fatalf("goal not met: gap=%v", result.ProteinGap)
	}
	if len(result.Supplements) != 0 {
		t.Fatalf("unexpected supplements: %+v", result.Supplements)
	}
}

func TestComputeValidation(t *testing.T) {
	modular := internal.ProductRecord{Name: "MCT oil", Category: internal.CategoryModular}

	cases := []struct {
		name string
		req  internal.DoseRequest
	}{
		{name: "modular product", req: internal.DoseRequest{Product: modular, Method: internal.MethodContinuous, HoursPerDay: 24}},
		{name: "zero hours", req: internal.DoseRequest{Product: jevity(), Method: internal.MethodContinuous}},
		{name: "too many hours", req: internal.DoseRequest{Product: jevity(), Method: internal.MethodContinuous, HoursPerDay: 25}},
		{name: "zero feeds", req: internal.DoseRequest{Product: jevity(), Method: internal.MethodBolus}},
		{name: "too many feeds", req: internal.DoseRequest{Product: jevity(), Method: internal.MethodBolus, FeedsPerDay: 13}},
		{name: "bad method", req: internal.DoseRequest{Product: jevity(), Method: "drip", HoursPerDay: 24}},
		{name: "negative target", req: internal.DoseRequest{TargetKcal: -1, Product: jevity(), Method: internal.MethodContinuous, HoursPerDay: 24}},
		{name: "negative rate", req: internal.DoseRequest{PropofolRate: -1, Product: jevity(), Method: internal.MethodContinuous, HoursPerDay: 24}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compute(tc.req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
