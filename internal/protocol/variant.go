// internal/protocol/variant.go
package protocol

// Variant captures the per-revision decode rules.
// Resolved once when the device is opened; the read path branches on
// nothing but this struct.
type Variant struct {
	Name      string
	ProductID uint16

	// TempScale converts the raw temperature byte to millidegrees.
	TempScale int32

	// HighCeiling marks hardware that always gets the higher rotor
	// ceiling regardless of firmware version.
	HighCeiling bool
}

var variants = []Variant{
	{
		Name:      "AORUS WATERFORCE X",
		ProductID: ProductWaterforceX,
		TempScale: 1000,
	},
	{
		Name:      "AORUS WATERFORCE X 360G",
		ProductID: ProductWaterforceX360,
		TempScale: 1000,
	},
	{
		Name:        "AORUS WATERFORCE EX 360",
		ProductID:   ProductWaterforceEX,
		TempScale:   1000,
		HighCeiling: true,
	},
}

// VariantFor returns the decode rules for a product ID.
func VariantFor(productID uint16) (Variant, bool) {
	for _, v := range variants {
		if v.ProductID == productID {
			return v, true
		}
	}
	return Variant{}, false
}
