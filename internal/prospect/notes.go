package prospect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanNotes turns CRM notes, which may carry HTML markup, into plain text
// with collapsed whitespace.
func CleanNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ""
	}
	if !strings.ContainsAny(notes, "<&") {
		return strings.Join(strings.Fields(notes), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(notes))
	if err != nil {
		return strings.Join(strings.Fields(notes), " ")
	}
	doc.Find("script,style").Remove()
	doc.Find("br,p,div,li").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
