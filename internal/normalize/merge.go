package normalize

// Accumulator folds canonical records into one entry per slug. The
// first occurrence of a slug seeds the entry; later occurrences
// overwrite only non-empty fields, and their raw payloads are shallow
// merged with the later row winning overlapping keys. Insertion order
// is preserved for deterministic persistence.
type Accumulator struct {
	order  []string
	merged map[string]*Seller
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		merged: make(map[string]*Seller),
	}
}

// Add folds one record into the accumulator.
func (a *Accumulator) Add(record *Seller) {
	if record == nil {
		return
	}

	existing, ok := a.merged[record.Slug]
	if !ok {
		a.order = append(a.order, record.Slug)
		a.merged[record.Slug] = record
		return
	}

	mergeInto(existing, record)
}

// Len reports the number of distinct slugs seen.
func (a *Accumulator) Len() int {
	return len(a.merged)
}

// Records returns the merged records in first-seen order.
func (a *Accumulator) Records() []*Seller {
	out := make([]*Seller, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.merged[key])
	}
	return out
}

func mergeInto(dst, src *Seller) {
	setIfPresent(&dst.Name, src.Name)
	setIfPresent(&dst.StateCode, src.StateCode)
	setIfPresent(&dst.StateName, src.StateName)
	setIfPresent(&dst.StateSlug, src.StateSlug)
	setIfPresent(&dst.City, src.City)
	setIfPresent(&dst.Website, src.Website)
	setIfPresent(&dst.ProfileURL, src.ProfileURL)
	setIfPresent(&dst.LogoURL, src.LogoURL)
	setIfPresent(&dst.Description, src.Description)

	if len(src.Raw) > 0 {
		if dst.Raw == nil {
			dst.Raw = make(map[string]interface{}, len(src.Raw))
		}
		for key, value := range src.Raw {
			dst.Raw[key] = value
		}
	}
}

func setIfPresent(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
