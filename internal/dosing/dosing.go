package dosing

import (
	"fmt"
	"math"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

// Fixed caloric densities of the two lipid-carrier infusions, kcal/mL.
const (
	propofolKcalPerMl    = 1.1
	clevidipineKcalPerMl = 2.0
)

// Modular protein supplements suggested against a protein deficit.
const (
	prosourceGramsPerPacket  = 20.0
	beneproteinGramsPerScoop = 6.0
)

// GoalsFromWeight derives daily caloric and protein targets from a dosing
// weight, rounded to whole units.
func GoalsFromWeight(weightKg, kcalPerKg, proteinPerKg float64) (kcal, protein int) {
	return int(math.Round(weightKg * kcalPerKg)), int(math.Round(weightKg * proteinPerKg))
}

// Compute turns goals, medication rates and a feeding schedule into a
// clinically rounded prescription. It is pure: same request, same result.
// Errors are reserved for out-of-range inputs; degenerate data (zero density,
// sub-threshold volumes) is handled by the clamping rules.
func Compute(req internal.DoseRequest) (internal.DoseResult, error) {
	if err := validate(req); err != nil {
		return internal.DoseResult{}, err
	}

	medKcal := req.PropofolRate*24*propofolKcalPerMl + req.ClevidipineRate*24*clevidipineKcalPerMl
	netKcal := math.Max(0, req.TargetKcal-medKcal)

	density := req.Product.Density
	if density <= 0 {
		density = 1.0
	}
	volumeNeeded := netKcal / density

	result := internal.DoseResult{MedKcal: medKcal, NetKcal: netKcal}

	switch req.Method {
	case internal.MethodContinuous:
		rate := roundToStep(volumeNeeded/float64(req.HoursPerDay), 5)
		if rate == 0 && volumeNeeded > 0 {
			rate = 5
		}
		result.RateMlPerHr = rate
		result.ActualVolumeMl = float64(rate * req.HoursPerDay)
	case internal.MethodBolus:
		bolus := roundToStep(volumeNeeded/float64(req.FeedsPerDay), 10)
		if bolus == 0 && volumeNeeded > 0 {
			bolus = 10
		}
		result.BolusMl = bolus
		result.ActualVolumeMl = float64(bolus * req.FeedsPerDay)
	}

	result.ProteinProvided = (result.ActualVolumeMl / 1000) * req.Product.ProteinPerLiter
	result.ProteinGap = req.TargetProtein - result.ProteinProvided
	if result.ProteinGap > 0 {
		result.Supplements = []internal.Supplement{
			{Name: "Prosource TF20", Amount: result.ProteinGap / prosourceGramsPerPacket, Unit: "packets"},
			{Name: "Beneprotein", Amount: result.ProteinGap / beneproteinGramsPerScoop, Unit: "scoops"},
		}
	} else {
		result.GoalMet = true
	}

	return result, nil
}

func validate(req internal.DoseRequest) error {
	if req.TargetKcal < 0 || req.TargetProtein < 0 {
		return fmt.Errorf("targets must not be negative")
	}
	if req.PropofolRate < 0 || req.ClevidipineRate < 0 {
		return fmt.Errorf("medication rates must not be negative")
	}
	if req.Product.Category != internal.CategoryFormula {
		return fmt.Errorf("product %q is not a formula", req.Product.Name)
	}
	switch req.Method {
	case internal.MethodContinuous:
		if req.HoursPerDay < 1 || req.HoursPerDay > 24 {
			return fmt.Errorf("hours per day must be 1-24, got %d", req.HoursPerDay)
		}
	case internal.MethodBolus:
		if req.FeedsPerDay < 1 || req.FeedsPerDay > 12 {
			return fmt.Errorf("feeds per day must be 1-12, got %d", req.FeedsPerDay)
		}
	default:
		return fmt.Errorf("unsupported feeding method: %s", req.Method)
	}
	return nil
}

// roundToStep rounds to the nearest multiple of step, with exact halves
// rounding up (62.5 at step 5 gives 65, never 60).
func roundToStep(value float64, step int) int {
	return step * int(math.Round(value/float64(step)))
}
