package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeaturesSetAndClear(t *testing.T) {
	var f Features

	assert.Equal(t, f, Features(0))
	assert.False(t, f.IsSupported(NativeILike))

	f.Set(NativeILike | JSONPostgres)
	assert.True(t, f.IsSupported(NativeILike))
	assert.True(t, f.IsSupported(JSONPostgres))

	f.Clear(NativeILike)
	assert.False(t, f.IsSupported(NativeILike))
	assert.True(t, f.IsSupported(JSONPostgres))
}

func TestParseFeatures(t *testing.T) {
	f, err := ParseFeatures("NativeILike", "rownumberpaging")
	assert.NoError(t, err)
	assert.True(t, f.IsSupported(NativeILike))
	assert.True(t, f.IsSupported(RowNumberPaging))
	assert.Equal(t, []string{"NativeILike", "RowNumberPaging"}, f.Names())

	_, err = ParseFeatures("Teleport")
	assert.EqualError(t, err, "invalid platform feature: Teleport")
}

func TestPlatformByName(t *testing.T) {
	p, err := PlatformByName("Postgres")
	assert.NoError(t, err)
	assert.Equal(t, "postgres", p.Name)
	assert.True(t, p.Has(NativeILike))
	assert.False(t, p.Has(RowNumberPaging))

	_, err = PlatformByName("db2")
	assert.Error(t, err)
}
