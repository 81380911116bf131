package crex

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
	"github.com/riskibarqy/cricket-live/internal/usecase"
)

// Extractor reads crex.live page markup. It never fails: anything it cannot
// locate is left unset and named in the returned missing list.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractFixtures(body []byte) ([]usecase.ExternalFixture, []string) {
	doc, ok := parseDocument(body)
	if !ok {
		return nil, []string{"document"}
	}

	cards := doc.Find("div.match-card")
	if cards.Length() == 0 {
		return nil, []string{"match-card"}
	}

	out := make([]usecase.ExternalFixture, 0, cards.Length())
	var missing []string
	cards.Each(func(i int, card *goquery.Selection) {
		id := strings.TrimSpace(card.AttrOr("data-match-id", ""))
		if id == "" {
			missing = append(missing, "match-card["+strconv.Itoa(i)+"].data-match-id")
			return
		}

		item := usecase.ExternalFixture{ID: id}
		if title, found := firstText(card, ".match-title"); found {
			item.Title = &title
		} else {
			missing = append(missing, id+".match-title")
		}
		if start, found := firstText(card, ".match-time"); found {
			item.StartTime = &start
		} else {
			missing = append(missing, id+".match-time")
		}
		out = append(out, item)
	})
	return out, missing
}

func (e *Extractor) ExtractDetails(body []byte) (match.Info, []string) {
	var info match.Info
	doc, ok := parseDocument(body)
	if !ok {
		return info, []string{"document"}
	}

	var missing []string
	section := doc.Find("div.match-info").First()
	if section.Length() == 0 {
		missing = append(missing, "match-info")
	} else {
		if venue, found := firstText(section, "span.venue"); found {
			info.Venue = &venue
		} else {
			missing = append(missing, "venue")
		}
		if umpires, found := firstText(section, "span.umpires"); found {
			info.Umpires = splitList(umpires)
		} else {
			missing = append(missing, "umpires")
		}
	}

	squads := doc.Find("div.squads").First()
	if squads.Length() == 0 {
		missing = append(missing, "squads")
	} else {
		info.SquadA = &match.Squad{Name: "team_a", Players: allText(squads, ".team-a-player")}
		info.SquadB = &match.Squad{Name: "team_b", Players: allText(squads, ".team-b-player")}
	}
	return info, missing
}

func (e *Extractor) ExtractLive(body []byte) (match.LiveSnapshot, []string) {
	var snap match.LiveSnapshot
	doc, ok := parseDocument(body)
	if !ok {
		return snap, []string{"document"}
	}

	section := doc.Find("div.live-stats").First()
	if section.Length() == 0 {
		return snap, []string{"live-stats"}
	}

	var missing []string
	if score, found := firstText(section, "span.score"); found {
		snap.Score = score
	} else {
		missing = append(missing, "score")
	}
	if over, found := firstText(section, "span.over"); found {
		snap.Over = over
	} else {
		missing = append(missing, "over")
	}
	return snap, missing
}

// ExtractScorecard leaves Batting and Bowling nil when the scorecard section
// is absent, and empty when the section exists without rows.
func (e *Extractor) ExtractScorecard(body []byte) (match.Scorecard, []string) {
	var card match.Scorecard
	doc, ok := parseDocument(body)
	if !ok {
		return card, []string{"document"}
	}

	section := doc.Find("div.scorecard").First()
	if section.Length() == 0 {
		return card, []string{"scorecard"}
	}

	card.Batting = allText(section, ".batsman")
	card.Bowling = allText(section, ".bowler")
	var missing []string
	if len(card.Batting) == 0 {
		missing = append(missing, "batsman")
	}
	if len(card.Bowling) == 0 {
		missing = append(missing, "bowler")
	}
	return card, missing
}

func parseDocument(body []byte) (*goquery.Document, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	return doc, true
}

func firstText(sel *goquery.Selection, selector string) (string, bool) {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(found.Text())
	return text, text != ""
}

func allText(sel *goquery.Selection, selector string) []string {
	out := make([]string, 0)
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
