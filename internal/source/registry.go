package source

// MeanConfidenceUndefined is the sentinel reported by Stats.MeanConfidence
// when the registry holds no sources. The mean of zero sources is undefined;
// callers must check Total before rendering the value.
const MeanConfidenceUndefined float64 = -1

// Cited is a deduplicated source together with the distinct set of message
// ids that cite it, in first-citation order.
type Cited struct {
	Source
	MessageIDs []string `json:"messageIds"`
}

// Citations returns the number of distinct messages citing the source.
func (c *Cited) Citations() int {
	return len(c.MessageIDs)
}

// Stats are the derived aggregates over a registry.
type Stats struct {
	// Total is the number of distinct sources.
	Total int `json:"total"`

	// HighConfidence counts sources at or above HighConfidenceThreshold.
	HighConfidence int `json:"highConfidence"`

	// MeanConfidence is the arithmetic mean of all source confidences,
	// or MeanConfidenceUndefined when Total is zero.
	MeanConfidence float64 `json:"meanConfidence"`

	// MaxPage is the maximum page number across all sources (0 when empty).
	MaxPage int `json:"maxPage"`
}

// Registry aggregates sources across messages, deduplicated by source id and
// ordered by first appearance.
//
// Merge policy: sources sharing an id are the same entity even when their
// content differs (a re-indexed document may change excerpt or confidence).
// The first occurrence's data wins; later occurrences only contribute their
// message-id link.
//
// The zero value is not useful; use NewRegistry.
type Registry struct {
	order []string
	byID  map[string]*Cited
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Cited),
	}
}

// Add records that messageID cites each of srcs. Sources with an empty id
// are skipped. Adding the same (message, source) pair twice is a no-op.
func (r *Registry) Add(messageID string, srcs ...Source) {
	for _, src := range srcs {
		if src.ID == "" {
			continue
		}
		entry, ok := r.byID[src.ID]
		if !ok {
			entry = &Cited{Source: src}
			r.byID[src.ID] = entry
			r.order = append(r.order, src.ID)
		}
		if !containsString(entry.MessageIDs, messageID) {
			entry.MessageIDs = append(entry.MessageIDs, messageID)
		}
	}
}

// Len returns the number of distinct sources.
func (r *Registry) Len() int {
	return len(r.order)
}

// Get returns the cited source with the given id, or nil.
func (r *Registry) Get(id string) *Cited {
	return r.byID[id]
}

// Sources returns all cited sources in first-seen order.
func (r *Registry) Sources() []*Cited {
	out := make([]*Cited, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Stats computes the derived aggregates.
func (r *Registry) Stats() Stats {
	stats := Stats{
		Total:          len(r.order),
		MeanConfidence: MeanConfidenceUndefined,
	}
	if stats.Total == 0 {
		return stats
	}

	var sum float64
	for _, id := range r.order {
		src := r.byID[id].Source
		sum += src.Confidence
		if src.Confidence >= HighConfidenceThreshold {
			stats.HighConfidence++
		}
		if src.Page > stats.MaxPage {
			stats.MaxPage = src.Page
		}
	}
	stats.MeanConfidence = sum / float64(stats.Total)
	return stats
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
