package benchmark

// VariantResult is one variant's reduced latency in milliseconds.
type VariantResult struct {
	Key     string  `json:"key"`
	Latency float64 `json:"latency_ms"`
}

// ItemResult groups the variant latencies measured for one corpus image.
type ItemResult struct {
	Image    string          `json:"image"`
	Variants []VariantResult `json:"variants"`
}

// Total returns the accumulated latency across the item's variants.
func (r ItemResult) Total() float64 {
	var total float64
	for _, v := range r.Variants {
		total += v.Latency
	}
	return total
}

// ResultTable collects per-image results in dataset iteration order.
type ResultTable struct {
	Items []ItemResult `json:"items"`
}

// Len returns the number of measured images.
func (t *ResultTable) Len() int { return len(t.Items) }

// Lookup returns the latency recorded for an image/variant pair.
func (t *ResultTable) Lookup(image, key string) (float64, bool) {
	for _, item := range t.Items {
		if item.Image != image {
			continue
		}
		for _, v := range item.Variants {
			if v.Key == key {
				return v.Latency, true
			}
		}
	}
	return 0, false
}

func (t *ResultTable) add(item ItemResult) {
	t.Items = append(t.Items, item)
}
