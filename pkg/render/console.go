package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"

	"feedbook/pkg/domain"
)

// wrapWidth is the terminal text box width for article descriptions
const wrapWidth = 110

// PrettyPrint writes the articles to w in a human-readable layout, optionally
// colorized for terminals
func PrettyPrint(w io.Writer, articles []domain.Article, colorize bool) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles to show")
		return
	}

	paint := func(c *color.Color, s string) string {
		if !colorize {
			return s
		}
		return c.Sprint(s)
	}

	fmt.Fprintln(w, paint(color.New(color.BgYellow), "Feed: "+articles[0].FeedTitle))
	fmt.Fprintln(w)

	for _, art := range articles {
		fmt.Fprintln(w, paint(color.New(color.BgBlue), "Title: "+art.Title))
		fmt.Fprintln(w, paint(color.New(color.BgRed), "Date: "+art.Published))
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint(color.New(color.FgWhite, color.Bold), "Description:"))
		fmt.Fprintln(w, paint(color.New(color.FgCyan, color.Bold), wordwrap.WrapString(art.Description, wrapWidth)))
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint(color.New(color.FgMagenta, color.Bold), "Links:"))
		fmt.Fprintln(w, paint(color.New(color.FgGreen), "[1]: "+art.Link))
		if art.HasImage() {
			fmt.Fprintln(w, paint(color.New(color.FgGreen), "[2]: "+art.ImageLink))
		}
		fmt.Fprintln(w, "----------------------------------")
	}
}
