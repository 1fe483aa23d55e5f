package domain

// Shared types for the booth sampling pipeline.
// These are built by the geodata loader, mutated by the clustering and
// selection stages, and flattened into tabular records by the aggregator.

// UnitKind distinguishes assembly from parliamentary constituencies
type UnitKind string

const (
	// KindAC - Assembly Constituency (state legislature)
	KindAC UnitKind = "ac"
	// KindPC - Parliamentary Constituency (national legislature)
	KindPC UnitKind = "pc"
)

// Valid reports whether the kind is one of the two supported values
func (k UnitKind) Valid() bool {
	return k == KindAC || k == KindPC
}

// Booth represents a single polling-station point location.
// Cluster is -1 until the unit's booths have been partitioned.
type Booth struct {
	Code         string  `json:"booth" msgpack:"code"`
	Name         string  `json:"booth_name" msgpack:"name"`
	District     string  `json:"district" msgpack:"district"`
	DistrictName string  `json:"district_name" msgpack:"district_name"`
	PC           string  `json:"pc" msgpack:"pc"`
	PCName       string  `json:"pc_name" msgpack:"pc_name"`
	AC           string  `json:"ac" msgpack:"ac"`
	ACName       string  `json:"ac_name" msgpack:"ac_name"`
	Latitude     float64 `json:"latitude" msgpack:"latitude"`
	Longitude    float64 `json:"longitude" msgpack:"longitude"`
	Cluster      int     `json:"cluster" msgpack:"-"`
	Selected     bool    `json:"selected" msgpack:"-"`
	Rank         int     `json:"rank,omitempty" msgpack:"-"`
}

// Unit is one AC or PC being processed in a batch run.
// Booths are already filtered to lie within the unit's boundary.
type Unit struct {
	Code             string
	Name             string
	State            string
	Kind             UnitKind
	Booths           []Booth
	SamplesRequested int
	// MissingGeometry marks a unit whose boundary record carried no usable
	// polygon (null shape). It still gets a failed summary row.
	MissingGeometry bool
}

// CompletionStatus is the derived per-unit status
type CompletionStatus string

const (
	// StatusCompleted - the unit yielded clusters*2 selections
	StatusCompleted CompletionStatus = "Completed"
	// StatusNotCompleted - the unit fell short; Reason carries the shortfall
	StatusNotCompleted CompletionStatus = "Not completed"
)

// SelectionResult records one selected booth within a cluster.
// Rank 1 is the booth nearest the centroid, rank 2 the second nearest.
type SelectionResult struct {
	Booth    Booth
	Cluster  int
	Rank     int
	DistM    float64 // Distance from cluster centroid in meters
}

// SummaryRecord is one row of the batch summary table (one per requested unit)
type SummaryRecord struct {
	UnitCode         string           `json:"unit_code"`
	UnitName         string           `json:"unit_name"`
	TotalBooths      int              `json:"total_booths"`
	SelectedBooths   int              `json:"selected_booths"`
	Status           CompletionStatus `json:"status"`
	Reason           string           `json:"reason"`
	SamplesRequested int              `json:"samples_requested"`
}

// SelectionRecord is one row of the batch selection table (one per selected booth)
type SelectionRecord struct {
	State        string  `json:"state"`
	District     string  `json:"district"`
	DistrictName string  `json:"district_name"`
	PC           string  `json:"pc"`
	PCName       string  `json:"pc_name"`
	AC           string  `json:"ac"`
	ACName       string  `json:"ac_name"`
	Booth        string  `json:"booth"`
	BoothName    string  `json:"booth_name"`
	Cluster      int     `json:"cluster"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// BatchTotals holds batch-level statistics across all processed units
type BatchTotals struct {
	UnitsProcessed int `json:"units_processed"`
	UnitsCompleted int `json:"units_completed"`
	BoothsScanned  int `json:"booths_scanned"`
	BoothsSelected int `json:"booths_selected"`
}
