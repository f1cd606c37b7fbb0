package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Storage, Parse("storage"))
	assert.Equal(t, Gallery, Parse("gallery"))
	assert.Equal(t, Profile, Parse("profile"))
	assert.Equal(t, Profile, Parse("settings"))
	assert.Equal(t, Profile, Parse(""))
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, Profile, r.Current())

	assert.Equal(t, Gallery, r.Go("gallery"))
	assert.Equal(t, Gallery, r.Current())

	assert.Equal(t, Profile, r.Go("admin"))
	assert.Equal(t, Profile, r.Current())

	r.Go("storage")
	r.Reset()
	assert.Equal(t, Profile, r.Current())
}
