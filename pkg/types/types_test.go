package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounts(t *testing.T) {
	results := []PageResult{
		{URL: "a", Status: StatusOK},
		{URL: "b", Status: StatusFailed, Error: errors.New("boom")},
		{URL: "c", Status: StatusOK},
		{URL: "d", Status: StatusNoContent},
	}

	counts := Counts(results)
	assert.Equal(t, 2, counts[StatusOK])
	assert.Equal(t, 1, counts[StatusNoContent])
	assert.Equal(t, 1, counts[StatusFailed])

	empty := Counts(nil)
	assert.Equal(t, 0, empty[StatusOK])
	assert.Len(t, empty, 3)
}
