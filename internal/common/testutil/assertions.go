package testutil

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertValidUUID checks if a string is a valid UUID
func AssertValidUUID(t *testing.T, id string, msgAndArgs ...interface{}) bool {
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	return assert.Regexp(t, uuidRegex, id, msgAndArgs...)
}

// AssertValidRouteStatus checks that a status string is one of the known
// route lifecycle states.
func AssertValidRouteStatus(t *testing.T, status string, msgAndArgs ...interface{}) bool {
	validStatuses := []string{"pending", "assigned", "completed"}
	return assert.Contains(t, validStatuses, status, msgAndArgs...)
}

// AssertNonNegative checks that a cost or distance value isn't negative.
func AssertNonNegative(t *testing.T, value float64, msgAndArgs ...interface{}) bool {
	return assert.GreaterOrEqual(t, value, 0.0, msgAndArgs...)
}

// AssertTimelineOrdered checks that a start time comes no later than an end
// time, the invariant every segment and route must satisfy.
func AssertTimelineOrdered(t *testing.T, startUnix, endUnix int64, msgAndArgs ...interface{}) bool {
	return assert.LessOrEqual(t, startUnix, endUnix, msgAndArgs...)
}
