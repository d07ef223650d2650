package atlas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/1siamBot/spritebake/engine/assetdb"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	e := Entry{UVSize: assetdb.V(1, 1)}
	c.Put("t2", "b", e)
	c.Put("t1", "a", e)
	c.Put("t1", "a", e)
	c.Put("t1", "c", e)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.Count("t1"))
	assert.Equal(t, []string{"t1", "t2"}, c.Textures())
	assert.Equal(t, []string{"a", "c"}, c.Sprites("t1"))

	_, ok := c.Lookup("t2", "a")
	assert.False(t, ok)
	got, ok := c.Lookup("t2", "b")
	assert.True(t, ok)
	assert.Equal(t, e, got)
}
