package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromValues(t *testing.T) {
	s, err := SettingsFromValues(map[string]json.RawMessage{
		SettingMemberDiscountEnabled:  json.RawMessage(`true`),
		SettingFeaturedPromoProductID: json.RawMessage(`7`),
		"bannerText":                  json.RawMessage(`"hello"`),
	})
	require.NoError(t, err)

	assert.True(t, s.MemberDiscountEnabled)
	assert.True(t, s.IsFeatured(NewID("7")))
	assert.False(t, s.IsFeatured(NewID("8")))
}

func TestSettingsFromValues_EmptyFeaturedIsUnset(t *testing.T) {
	s, err := SettingsFromValues(map[string]json.RawMessage{
		SettingFeaturedPromoProductID: json.RawMessage(`""`),
	})
	require.NoError(t, err)

	assert.False(t, s.IsFeatured(""))
}

func TestSettingsFromValues_BadValue(t *testing.T) {
	_, err := SettingsFromValues(map[string]json.RawMessage{
		SettingMemberDiscountEnabled: json.RawMessage(`"yes"`),
	})
	assert.Error(t, err)
}
