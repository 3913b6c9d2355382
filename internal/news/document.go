// Package news models the analyzed news documents written by the ingestion
// process and turns them into the display shape the frontend expects.
//
// Stored documents are loosely shaped: the publish time may be a timestamp
// or an ISO-8601 string, and the analysis block may be missing or hold a
// malformed symbol list. Parse applies the whole tolerance policy in one
// place and reports what it had to recover.
package news

import "time"

// DefaultSentiment is assumed when a document carries no sentiment label.
const DefaultSentiment = "Neutral"

// Published holds a document's publish time in whichever form it was stored.
// Exactly one of Time or Raw is meaningful.
type Published struct {
	Time time.Time
	Raw  string
}

// IsTime reports whether the publish time was stored as a structured timestamp.
func (p Published) IsTime() bool { return !p.Time.IsZero() }

// Analysis is the typed form of a document's "analysis" block.
type Analysis struct {
	Sentiment       string
	ImpactScore     *float64
	SummaryEN       string
	SummaryTH       string
	AffectedSymbols []string
}

// Document is a parsed news record.
type Document struct {
	ID        string
	Title     string
	Link      string
	Source    string
	Published Published
	Content   string
	Analysis  *Analysis
}

// Recovery names the fields Parse had to default. A zero Recovery means the
// document was well formed.
type Recovery []string

// Field names reported in a Recovery.
const (
	RecoveredAnalysis  = "analysis"
	RecoveredSymbols   = "affected_symbols"
	RecoveredPublished = "published"
)

// OK reports whether nothing had to be recovered.
func (r Recovery) OK() bool { return len(r) == 0 }

// Has reports whether field was recovered.
func (r Recovery) Has(field string) bool {
	for _, f := range r {
		if f == field {
			return true
		}
	}
	return false
}

// Parse converts a raw stored document into a Document. id is the store's
// document key and is used when the body has no "id" field of its own.
//
// Missing or non-object analysis becomes nil. A missing or non-list
// affected_symbols becomes an empty list, and non-string members are dropped.
// A publish time that is neither a timestamp nor a string is left empty.
func Parse(id string, raw map[string]any) (Document, Recovery) {
	var rec Recovery

	doc := Document{
		ID:      stringField(raw, "id"),
		Title:   stringField(raw, "title"),
		Link:    stringField(raw, "link"),
		Source:  stringField(raw, "source"),
		Content: stringField(raw, "content"),
	}
	if doc.ID == "" {
		doc.ID = id
	}

	switch v := raw["published"].(type) {
	case time.Time:
		doc.Published = Published{Time: v}
	case *time.Time:
		if v != nil {
			doc.Published = Published{Time: *v}
		} else {
			rec = append(rec, RecoveredPublished)
		}
	case string:
		doc.Published = Published{Raw: v}
	default:
		rec = append(rec, RecoveredPublished)
	}

	a, ok := raw["analysis"].(map[string]any)
	if !ok {
		// Absent analysis is normal for freshly ingested items; only a
		// wrong-shaped value counts as recovered.
		if _, present := raw["analysis"]; present && raw["analysis"] != nil {
			rec = append(rec, RecoveredAnalysis)
		}
		return doc, rec
	}

	analysis := &Analysis{
		Sentiment: stringField(a, "sentiment"),
		SummaryEN: stringField(a, "summary_en"),
		SummaryTH: stringField(a, "summary_th"),
	}
	if analysis.Sentiment == "" {
		analysis.Sentiment = DefaultSentiment
	}
	if score, ok := numberField(a, "impact_score"); ok {
		analysis.ImpactScore = &score
	}

	symbols, clean := symbolList(a["affected_symbols"])
	analysis.AffectedSymbols = symbols
	if !clean {
		rec = append(rec, RecoveredSymbols)
	}

	doc.Analysis = analysis
	return doc, rec
}

// symbolList coerces a stored affected_symbols value into a string slice.
// Members are kept verbatim so validation sees exactly what was stored.
// clean is false when the value was missing, not a list, or had members
// that were not strings.
func symbolList(v any) (symbols []string, clean bool) {
	symbols = []string{}
	switch list := v.(type) {
	case []string:
		return append(symbols, list...), true
	case []any:
		clean = true
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				clean = false
				continue
			}
			symbols = append(symbols, s)
		}
		return symbols, clean
	default:
		return symbols, false
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch n := m[key].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
