package feed

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/feed-dispatch/app/filename"
)

var (
	errMissingTitle     = errors.New("missing title")
	errMissingLink      = errors.New("missing link")
	errMissingPublished = errors.New("missing or malformed publish time")
	errMissingAuthor    = errors.New("missing author")
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS, Atom or JSON feed document. Entries lacking a required
// field are dropped and counted; they never fail the whole document.
func (p *Parser) Run(data []byte, feedName string) ([]Item, int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, fmt.Errorf("failed to parse feed: empty document")
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse feed: %w", err)
	}

	feedAuthor := p.feedAuthor(feed)

	items := make([]Item, 0, len(feed.Items))
	dropped := 0
	for i, entry := range feed.Items {
		item, err := p.normalizeItem(entry, feedAuthor, feedName)
		if err != nil {
			dropped++
			slog.Debug("Feed entry dropped", "feed", feedName, "index", i, "reason", err)
			continue
		}
		items = append(items, item)
	}

	return items, dropped, nil
}

func (p *Parser) normalizeItem(entry *gofeed.Item, feedAuthor string, feedName string) (Item, error) {
	if entry == nil {
		return Item{}, errMissingTitle
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return Item{}, errMissingTitle
	}

	link := strings.TrimSpace(cmp.Or(entry.Link, p.firstLink(entry.Links)))
	if link == "" {
		return Item{}, errMissingLink
	}

	if entry.PublishedParsed == nil || entry.PublishedParsed.IsZero() {
		return Item{}, errMissingPublished
	}

	author := cmp.Or(p.itemAuthor(entry), feedAuthor)
	if author == "" {
		return Item{}, errMissingAuthor
	}

	return Item{
		Title:       filename.Sanitize(title),
		SourceURL:   link,
		PublishedAt: entry.PublishedParsed.UTC(),
		AuthorName:  author,
		FeedName:    feedName,
	}, nil
}

func (p *Parser) itemAuthor(entry *gofeed.Item) string {
	for _, author := range entry.Authors {
		if author != nil {
			if name := p.formatAuthor(author.Name, author.Email); name != "" {
				return name
			}
		}
	}
	if entry.Author != nil {
		return p.formatAuthor(entry.Author.Name, entry.Author.Email)
	}
	return ""
}

func (p *Parser) feedAuthor(feed *gofeed.Feed) string {
	for _, author := range feed.Authors {
		if author != nil {
			if name := p.formatAuthor(author.Name, author.Email); name != "" {
				return name
			}
		}
	}
	if feed.Author != nil {
		return p.formatAuthor(feed.Author.Name, feed.Author.Email)
	}
	return ""
}

// formatAuthor prefers the display name; the email is only used when no
// name is present.
func (p *Parser) formatAuthor(name, email string) string {
	return cmp.Or(strings.TrimSpace(name), strings.TrimSpace(email))
}

func (p *Parser) firstLink(links []string) string {
	for _, link := range links {
		if strings.TrimSpace(link) != "" {
			return link
		}
	}
	return ""
}
