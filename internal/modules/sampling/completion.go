package sampling

import (
	"fmt"

	"github.com/aristath/boothmap/internal/domain"
)

// ReasonNoBooths is the summary reason for units with an empty booth set
const ReasonNoBooths = "No booths found within boundary"

// ReasonNoGeometry is the summary reason for units whose boundary record
// carried no usable polygon
const ReasonNoGeometry = "No boundary geometry found"

// EvaluateCompletion derives a unit's status from expected vs actual selection
// counts. Pure function: expected is clustersCount*2, actual is the number of
// booths the selector produced across all clusters.
func EvaluateCompletion(clustersCount, selectedCount int) (domain.CompletionStatus, string) {
	expected := clustersCount * BoothsPerCluster
	if selectedCount == expected {
		return domain.StatusCompleted, ""
	}
	return domain.StatusNotCompleted,
		fmt.Sprintf("Only %d booths selected out of %d required", selectedCount, expected)
}
