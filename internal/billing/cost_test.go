package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitCost(t *testing.T) {
	assert.Equal(t, 2600, VisitCost([]int{1000, 300}, 2, nil, 0, 0, true))
	assert.Equal(t, 1500, VisitCost([]int{1000}, 1, []int{250}, 2, 0, true))
	assert.Equal(t, 800, VisitCost([]int{1000}, 1, nil, 0, 200, true))
}

func TestVisitCostFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0, VisitCost([]int{100}, 1, nil, 0, 500, true))
}

func TestVisitCostNonBillableMethod(t *testing.T) {
	assert.Equal(t, 0, VisitCost([]int{1000}, 3, []int{250}, 1, 0, false))
}

func TestVisitCostQuantityDefaults(t *testing.T) {
	assert.Equal(t, 1000, VisitCost([]int{1000}, 0, nil, 0, 0, true))
	assert.Equal(t, 1250, VisitCost([]int{1000}, 1, []int{250}, 0, 0, true))
}
