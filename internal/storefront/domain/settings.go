package domain

import (
	"encoding/json"
	"fmt"
)

// Keys recognised by the pricing engine.
const (
	SettingMemberDiscountEnabled  = "memberDiscountEnabled"
	SettingFeaturedPromoProductID = "featuredPromoProductId"
)

// Settings is the typed projection of the admin key/value settings.
// The zero value disables every promotion.
type Settings struct {
	MemberDiscountEnabled  bool `json:"memberDiscountEnabled"`
	FeaturedPromoProductID ID   `json:"featuredPromoProductId"`
}

// IsFeatured reports whether id is the configured featured promo product.
func (s Settings) IsFeatured(id ID) bool {
	return !s.FeaturedPromoProductID.IsZero() && s.FeaturedPromoProductID == id
}

// SettingsFromValues decodes the raw JSON values kept by a settings store.
// Unknown keys are ignored.
func SettingsFromValues(values map[string]json.RawMessage) (Settings, error) {
	var s Settings
	if raw, ok := values[SettingMemberDiscountEnabled]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.MemberDiscountEnabled); err != nil {
			return Settings{}, fmt.Errorf("domain: decode %s: %w", SettingMemberDiscountEnabled, err)
		}
	}
	if raw, ok := values[SettingFeaturedPromoProductID]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.FeaturedPromoProductID); err != nil {
			return Settings{}, fmt.Errorf("domain: decode %s: %w", SettingFeaturedPromoProductID, err)
		}
	}
	return s, nil
}
