package internal

// AttributeLabel is the fixed header of the Card View's first column.
const AttributeLabel = "Nutrient/Attribute"

// ProductLabel is the fixed header of the Calculation View's product column.
const ProductLabel = "Product Name"

type Category string

const (
	CategoryFormula Category = "Formula"
	CategoryModular Category = "Modular"
)

// RawTable is the formulary as loaded: one attribute-name column followed by
// one column per product. Attribute names are not unique ("% Calories" repeats).
type RawTable struct {
	Products []string
	Rows     []RawRow
}

type RawRow struct {
	Attribute string
	Cells     []string
}

// CardView keeps the raw shape for display: nutrients as rows, products as
// columns, in source order.
type CardView struct {
	Products []string
	Rows     []CardRow
}

type CardRow struct {
	Attribute string
	Cells     []string
}

// ProductRecord is one transposed row of the Calculation View.
type ProductRecord struct {
	Name            string
	Attributes      map[string]string
	Density         float64
	ProteinPerLiter float64
	Category        Category
}

// CalcView holds products as rows with deduplicated attribute columns.
type CalcView struct {
	Columns  []string
	Products []ProductRecord
}

type FeedingMethod string

const (
	MethodContinuous FeedingMethod = "continuous"
	MethodBolus      FeedingMethod = "bolus"
)

type DoseRequest struct {
	TargetKcal      float64       `json:"targetKcal"`
	TargetProtein   float64       `json:"targetProtein"`
	PropofolRate    float64       `json:"propofolRateMlPerHr"`
	ClevidipineRate float64       `json:"clevidipineRateMlPerHr"`
	Product         ProductRecord `json:"product"`
	Method          FeedingMethod `json:"method"`
	HoursPerDay     int           `json:"hoursPerDay"`
	FeedsPerDay     int           `json:"feedsPerDay"`
}

type Supplement struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type DoseResult struct {
	MedKcal         float64      `json:"medKcal"`
	NetKcal         float64      `json:"netKcal"`
	RateMlPerHr     int          `json:"rateMlPerHr,omitempty"`
	BolusMl         int          `json:"bolusMl,omitempty"`
	ActualVolumeMl  float64      `json:"actualVolumeMl"`
	ProteinProvided float64      `json:"proteinProvided"`
	ProteinGap      float64      `json:"proteinGap"`
	GoalMet         bool         `json:"goalMet"`
	Supplements     []Supplement `json:"supplements,omitempty"`
}

// SourceRow tracks one fetched or discovered raw formulary file.
type SourceRow struct {
	ID        int
	Kind      string
	Location  string
	Hash      string
	Status    string
	RawRef    string
	FetchedAt string
}

// SnapshotRow is the persisted result of normalizing one raw table.
type SnapshotRow struct {
	ID             string
	SourceHash     string
	ProductCount   int
	AttributeCount int
	CreatedAt      string
}
