package catalog

func offerings(titles map[string]int64) []Offering {
	out := make([]Offering, 0, len(titles))
	for title, price := range titles {
		out = append(out, Offering{Title: title, PriceCents: price})
	}
	return out
}

// Defaults is the starter catalog of a small auto shop. Prices are in centavos.
var Defaults = []Category{
	{Name: "Oil Change", Offerings: offerings(map[string]int64{
		"Conventional":    150000,
		"Synthetic Blend": 220000,
		"Full Synthetic":  320000,
	})},
	{Name: "Tire Service", Offerings: offerings(map[string]int64{
		"Rotation":    60000,
		"Balancing":   80000,
		"Replacement": 450000,
	})},
	{Name: "Brake Service", Offerings: offerings(map[string]int64{
		"Pad Replacement":   250000,
		"Rotor Resurfacing": 180000,
		"Fluid Flush":       120000,
	})},
	{Name: "Diagnostics", Offerings: offerings(map[string]int64{
		"Check Engine Light":      90000,
		"Electrical":              110000,
		"Pre-Purchase Inspection": 200000,
	})},
	{Name: "Battery", Offerings: offerings(map[string]int64{
		"Test":        30000,
		"Replacement": 550000,
	})},
	{Name: "Air Conditioning", Offerings: offerings(map[string]int64{
		"Recharge":   180000,
		"Leak Check": 90000,
	})},
}
