package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, Params{}.Normalize())
	assert.Equal(t, Params{Page: 3, Limit: MaxLimit}, Params{Page: 3, Limit: 1000}.Normalize())
	assert.Equal(t, Params{Page: 1, Limit: 5}, Params{Page: -2, Limit: 5}.Normalize())
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, Page{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, Params{Page: 2, Limit: 10}.Describe(25))
	assert.Equal(t, Page{Page: 1, Limit: 10, Total: 0, TotalPages: 0}, Params{Page: 1, Limit: 10}.Describe(0))
	assert.Equal(t, 2, Params{Limit: 10}.Describe(20).TotalPages)
}
