package extract

import (
	"fmt"
	"strconv"
	"time"

	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// ResolvePubMedDate resolves the publication date of a PubMed citation
// from the PubMedPubDate node with PubStatus="pubmed". The year is
// required; month and day default to 1. Any failure, from a missing
// node to an out-of-range component, means the whole date is absent.
func ResolvePubMedDate(n *xmltree.Node) (*time.Time, error) {
	date := n.Find(".//PubMedPubDate[@PubStatus='pubmed']")
	if date == nil {
		return nil, fmt.Errorf("no pubmed publication date node")
	}
	return buildDate(
		Text(date, ".//Year", "", "\n"),
		Text(date, ".//Month", "1", "\n"),
		Text(date, ".//Day", "1", "\n"),
	)
}

// ResolvePMCDate resolves the publication date of a PMC article. The
// candidate node is chosen by priority: the last pub-date carrying
// pub-type="epub", then the electronic date-type="pub" node, then the
// first pub-date in document order.
func ResolvePMCDate(n *xmltree.Node) (*time.Time, error) {
	var date *xmltree.Node
	for _, candidate := range n.FindAll(".//pub-date") {
		if candidate.Attr("pub-type") == "epub" {
			date = candidate
		}
	}
	if date == nil {
		date = n.Find(".//pub-date[@date-type='pub'][@publication-format='electronic']")
	}
	if date == nil {
		date = n.Find(".//pub-date")
	}
	if date == nil {
		return nil, fmt.Errorf("no publication date node")
	}
	return buildDate(
		Text(date, ".//year", "", "\n"),
		Text(date, ".//month", "1", "\n"),
		Text(date, ".//day", "1", "\n"),
	)
}

// buildDate assembles a calendar date from string components, rejecting
// anything that does not name a real day. time.Date normalizes
// out-of-range components, so the result is compared back against the
// inputs instead.
func buildDate(year, month, day string) (*time.Time, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return nil, fmt.Errorf("invalid year %q: %w", year, err)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	if y < 1 || y > 9999 {
		return nil, fmt.Errorf("year %d out of range", y)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return nil, fmt.Errorf("date %04d-%02d-%02d does not exist", y, m, d)
	}
	return &t, nil
}
