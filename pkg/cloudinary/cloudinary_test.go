package cloudinary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptimizedImageURL(t *testing.T) {
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/q_auto,f_auto,w_800,c_fill/products/7/cover",
		BuildOptimizedImageURL("demo", "products/7/cover", 0))
	assert.Contains(t, BuildOptimizedImageURL("demo", "x", ThumbWidth), "w_200")
}

func TestNewClientFromParams(t *testing.T) {
	c, err := NewClientFromParams("demo", "key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
