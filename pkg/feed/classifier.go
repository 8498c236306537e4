package feed

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/go-pkgz/lgr"
	"golang.org/x/net/html"

	"feedbook/pkg/domain"
)

// payloadRe matches the escaped markup fragment embedded in a description
// field. The HTML5 tokenizer mangles CDATA sections outside foreign content
// (it cuts them at the first ">"), so payloads are recovered from the raw
// document text instead of the parsed tree.
var payloadRe = regexp.MustCompile(`(?si)<description>\s*<!\[CDATA\[(.*?)\]\]>\s*</description>`)

// itemStartRe locates entry boundaries in the raw document
var itemStartRe = regexp.MustCompile(`(?i)<item[\s>]`)

// Classify decides which extraction strategy applies to a fetched document.
// Some feeds embed an escaped HTML fragment in the description field, with an
// anchor around the article image; for those the description has to be parsed
// a second time. The check is a heuristic: parse the document permissively,
// confirm the first entry and its description exist, extract the embedded
// CDATA payload and look for an anchor inside. Every missing step means the
// plain strategy, which degrades gracefully even when the guess is wrong.
func Classify(doc []byte) domain.FeedKind {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		// parse-level failure is not the same as confidently plain, worth a trace
		lgr.Printf("[WARN] classifier: permissive parse failed, assuming plain feed: %v", err)
		return domain.KindPlain
	}

	item := findElement(root, "item")
	if item == nil {
		return domain.KindPlain
	}
	if findElement(item, "description") == nil {
		return domain.KindPlain
	}
	payloads := itemPayloads(doc, 1)
	if len(payloads) == 0 || payloads[0] == "" {
		return domain.KindPlain
	}

	inner, err := html.Parse(strings.NewReader(payloads[0]))
	if err != nil {
		lgr.Printf("[WARN] classifier: embedded payload parse failed, assuming plain feed: %v", err)
		return domain.KindPlain
	}
	if findElement(inner, "a") != nil {
		return domain.KindWrapped
	}
	return domain.KindPlain
}

// findElement returns the first element with the given name, depth-first
func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// itemPayloads returns each entry's embedded CDATA description payload in
// document order, "" for entries carrying none, at most limit entries (0
// means all). Matching is scoped to the entry's own block so a channel-level
// CDATA description never shifts the pairing.
func itemPayloads(doc []byte, limit int) []string {
	starts := itemStartRe.FindAllIndex(doc, -1)
	payloads := make([]string, 0, len(starts))
	for i, loc := range starts {
		if limit > 0 && len(payloads) >= limit {
			break
		}
		end := len(doc)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		if m := payloadRe.FindSubmatch(doc[loc[0]:end]); m != nil {
			payloads = append(payloads, string(m[1]))
			continue
		}
		payloads = append(payloads, "")
	}
	return payloads
}
