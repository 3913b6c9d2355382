package news

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/financeflow/pkg/utils"
)

// Impact labels shown by the frontend.
const (
	ImpactBullish = "Bullish"
	ImpactBearish = "Bearish"
	ImpactMixed   = "Mixed"
)

// NoSummary is shown when a document has neither a summary nor content.
const NoSummary = "No summary available."

// excerptLen is the number of characters of content used as a fallback summary.
const excerptLen = 150

// Item is a news document in display form, as served by /api/main_feed.
type Item struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Link      string       `json:"link"`
	Source    string       `json:"source"`
	Published string       `json:"published"`
	Content   string       `json:"content"`
	Analysis  ItemAnalysis `json:"analysis"`
}

// ItemAnalysis is the display form of Analysis. Every field is always present.
type ItemAnalysis struct {
	Sentiment       string   `json:"sentiment"`
	Impact          string   `json:"impact"`
	ImpactScore     *float64 `json:"impact_score"`
	SummaryEN       string   `json:"summary_en"`
	SummaryTH       string   `json:"summary_th"`
	AffectedSymbols []string `json:"affected_symbols"`
}

// ImpactFor maps a sentiment label to its display impact label.
func ImpactFor(sentiment string) string {
	switch sentiment {
	case "Positive":
		return ImpactBullish
	case "Negative":
		return ImpactBearish
	default:
		return ImpactMixed
	}
}

// Normalize derives the display form of doc. ok is false when the document
// had a string publish time that could not be parsed; the string is then
// passed through unchanged.
func Normalize(doc Document) (item Item, ok bool) {
	ok = true
	item = Item{
		ID:      doc.ID,
		Title:   doc.Title,
		Link:    doc.Link,
		Source:  doc.Source,
		Content: doc.Content,
	}

	switch {
	case doc.Published.IsTime():
		item.Published = utils.FormatThai(doc.Published.Time)
	case doc.Published.Raw != "":
		if t, err := utils.ParseISO(doc.Published.Raw); err == nil {
			item.Published = utils.FormatThai(t)
		} else {
			item.Published = doc.Published.Raw
			ok = false
		}
	}

	a := doc.Analysis
	if a == nil {
		a = &Analysis{Sentiment: DefaultSentiment}
	}

	summaryEN := strings.TrimSpace(a.SummaryEN)
	if summaryEN == "" {
		summaryEN = fallbackSummary(doc.Content)
	}
	summaryTH := strings.TrimSpace(a.SummaryTH)
	if summaryTH == "" {
		summaryTH = summaryEN
	}

	symbols := a.AffectedSymbols
	if symbols == nil {
		symbols = []string{}
	}

	sentiment := a.Sentiment
	if sentiment == "" {
		sentiment = DefaultSentiment
	}

	item.Analysis = ItemAnalysis{
		Sentiment:       sentiment,
		Impact:          ImpactFor(sentiment),
		ImpactScore:     a.ImpactScore,
		SummaryEN:       summaryEN,
		SummaryTH:       summaryTH,
		AffectedSymbols: symbols,
	}
	return item, ok
}

// fallbackSummary builds a summary from the first characters of content.
func fallbackSummary(content string) string {
	text := cleanHTML(content)
	if text == "" {
		return NoSummary
	}
	runes := []rune(text)
	if len(runes) > excerptLen {
		runes = runes[:excerptLen]
	}
	return string(runes) + "..."
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// CollectSymbols returns the sorted, de-duplicated set of normalized affected
// symbols across items that pass utils.IsValidTicker, capped at max entries
// (no cap when max <= 0). It also returns every raw symbol seen, for logging.
func CollectSymbols(items []Item, max int) (valid, raw []string) {
	seen := make(map[string]struct{})
	for _, it := range items {
		for _, s := range it.Analysis.AffectedSymbols {
			seen[utils.NormalizeTicker(s)] = struct{}{}
		}
	}

	raw = make([]string, 0, len(seen))
	for s := range seen {
		raw = append(raw, s)
	}
	sort.Strings(raw)

	valid = make([]string, 0, len(raw))
	for _, s := range raw {
		if utils.IsValidTicker(s) {
			valid = append(valid, s)
		}
	}
	if max > 0 && len(valid) > max {
		valid = valid[:max]
	}
	return valid, raw
}
