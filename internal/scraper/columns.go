package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// columnRule extracts a value from a table cell. It reports false when it
// does not apply, so the next rule in the column's list is tried.
type columnRule func(cell *goquery.Selection) (string, bool)

// column binds a field to a cell index and an ordered list of rules.
type column struct {
	name  string
	index int
	rules []columnRule
}

func (c column) extract(cells *goquery.Selection) string {
	cell := cells.Eq(c.index)
	for _, rule := range c.rules {
		if v, ok := rule(cell); ok {
			return v
		}
	}
	return ""
}

// anchorTitle yields the title attribute of the first anchor matching selector.
func anchorTitle(selector string) columnRule {
	return func(cell *goquery.Selection) (string, bool) {
		title, ok := cell.Find(selector).First().Attr("title")
		title = strings.TrimSpace(title)
		return title, ok && title != ""
	}
}

// anchorText yields the text of the first anchor matching selector.
func anchorText(selector string) columnRule {
	return func(cell *goquery.Selection) (string, bool) {
		a := cell.Find(selector).First()
		if a.Length() == 0 {
			return "", false
		}
		return strings.TrimSpace(a.Text()), true
	}
}

// cellText always applies and yields the trimmed cell text.
func cellText(cell *goquery.Selection) (string, bool) {
	return strings.TrimSpace(cell.Text()), true
}

// linkResolver turns relative hrefs into absolute URLs on the source host.
type linkResolver struct {
	base *url.URL
}

func newLinkResolver(baseURL string) (linkResolver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return linkResolver{}, err
	}
	return linkResolver{base: base}, nil
}

// href resolves the href of the first anchor matching selector in cell.
// Missing anchors and links to other hosts yield "".
func (r linkResolver) href(cell *goquery.Selection, selector string) string {
	href, ok := cell.Find(selector).First().Attr("href")
	if !ok {
		return ""
	}
	return r.resolve(href)
}

func (r linkResolver) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := r.base.ResolveReference(ref)
	if !strings.EqualFold(abs.Host, r.base.Host) {
		return ""
	}
	return abs.String()
}

// dataRows returns the rows of table after the header row.
func dataRows(table *goquery.Selection) *goquery.Selection {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return rows.Slice(0, 0)
	}
	return rows.Slice(1, goquery.ToEnd)
}
