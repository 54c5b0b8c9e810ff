package feed

import (
	"testing"
	"time"
)

const youtubeAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
  <link rel="self" href="http://www.youtube.com/feeds/videos.xml?channel_id=UC123"/>
  <id>yt:channel:UC123</id>
  <yt:channelId>UC123</yt:channelId>
  <title>Test Channel</title>
  <link rel="alternate" href="https://www.youtube.com/channel/UC123"/>
  <author>
    <name>Test Channel</name>
    <uri>https://www.youtube.com/channel/UC123</uri>
  </author>
  <published>2015-03-01T10:00:00+00:00</published>
  <entry>
    <id>yt:video:abc</id>
    <yt:videoId>abc</yt:videoId>
    <title>First: the beginning?</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc"/>
    <author>
      <name>Test Channel</name>
      <uri>https://www.youtube.com/channel/UC123</uri>
    </author>
    <published>2024-01-02T12:00:00+00:00</published>
    <updated>2024-01-03T12:00:00+00:00</updated>
    <media:group>
      <media:title>First: the beginning?</media:title>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:def</id>
    <title>Second</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=def"/>
    <author>
      <name>Test Channel</name>
    </author>
    <published>2023-12-31T08:30:00+00:00</published>
  </entry>
</feed>`

func TestParseAtom(t *testing.T) {
	parser := NewParser()
	items, dropped, err := parser.Run([]byte(youtubeAtom), "test-channel")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if dropped != 0 {
		t.Errorf("Expected 0 dropped entries, got: %d", dropped)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	item := items[0]
	if item.Title != "First the beginning" {
		t.Errorf("Expected sanitized title 'First the beginning', got: %s", item.Title)
	}
	if item.SourceURL != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("Expected link 'https://www.youtube.com/watch?v=abc', got: %s", item.SourceURL)
	}
	if item.AuthorName != "Test Channel" {
		t.Errorf("Expected author 'Test Channel', got: %s", item.AuthorName)
	}
	if item.FeedName != "test-channel" {
		t.Errorf("Expected feed name 'test-channel', got: %s", item.FeedName)
	}
	expected := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(expected) {
		t.Errorf("Expected published %v, got: %v", expected, item.PublishedAt)
	}
	if item.PublishedAt.Location() != time.UTC {
		t.Errorf("Expected published time in UTC, got: %v", item.PublishedAt.Location())
	}
}

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <author>test@example.com (Test Author)</author>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <guid>item-2</guid>
      <pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>
      <author>only@example.com</author>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	items, _, err := parser.Run([]byte(rssData), "rss")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}
	if items[0].AuthorName != "Test Author" {
		t.Errorf("Expected author 'Test Author', got: %s", items[0].AuthorName)
	}
	if items[1].AuthorName != "only@example.com" {
		t.Errorf("Expected author 'only@example.com', got: %s", items[1].AuthorName)
	}
}

func TestParseFallsBackToFeedAuthor(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <author><name>Feed Author</name></author>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Entry without author</title>
    <link href="https://example.com/entry1"/>
    <id>urn:uuid:entry-1</id>
    <published>2023-07-03T10:00:00Z</published>
  </entry>
</feed>`

	parser := NewParser()
	items, dropped, err := parser.Run([]byte(atomData), "atom")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if dropped != 0 || len(items) != 1 {
		t.Fatalf("Expected 1 item and 0 dropped, got: %d items, %d dropped", len(items), dropped)
	}
	if items[0].AuthorName != "Feed Author" {
		t.Errorf("Expected feed-level author 'Feed Author', got: %s", items[0].AuthorName)
	}
}

func TestParseDropsIncompleteEntries(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Mixed quality</title>
  <id>urn:uuid:mixed</id>
  <entry>
    <title>Complete</title>
    <link href="https://example.com/ok"/>
    <author><name>A</name></author>
    <published>2023-07-03T10:00:00Z</published>
  </entry>
  <entry>
    <title>No link</title>
    <author><name>A</name></author>
    <published>2023-07-03T10:00:00Z</published>
  </entry>
  <entry>
    <title>No date</title>
    <link href="https://example.com/nodate"/>
    <author><name>A</name></author>
  </entry>
  <entry>
    <title>Bad date</title>
    <link href="https://example.com/baddate"/>
    <author><name>A</name></author>
    <published>not a date</published>
  </entry>
  <entry>
    <link href="https://example.com/notitle"/>
    <author><name>A</name></author>
    <published>2023-07-03T10:00:00Z</published>
  </entry>
  <entry>
    <title>No author anywhere</title>
    <link href="https://example.com/noauthor"/>
    <published>2023-07-03T10:00:00Z</published>
  </entry>
</feed>`

	parser := NewParser()
	items, dropped, err := parser.Run([]byte(atomData), "mixed")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 surviving item, got: %d", len(items))
	}
	if items[0].Title != "Complete" {
		t.Errorf("Expected surviving item 'Complete', got: %s", items[0].Title)
	}
	if dropped != 5 {
		t.Errorf("Expected 5 dropped entries, got: %d", dropped)
	}
}

func TestParseEmptyFeed(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Nothing yet</title>
  <id>urn:uuid:empty</id>
</feed>`

	parser := NewParser()
	items, dropped, err := parser.Run([]byte(atomData), "empty")

	if err != nil {
		t.Fatalf("Expected no error for feed without entries, got: %v", err)
	}
	if len(items) != 0 || dropped != 0 {
		t.Errorf("Expected no items, got: %d items, %d dropped", len(items), dropped)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()

	if _, _, err := parser.Run([]byte("invalid xml"), "broken"); err == nil {
		t.Error("Expected error for invalid XML")
	}
	if _, _, err := parser.Run([]byte("   "), "blank"); err == nil {
		t.Error("Expected error for blank document")
	}
}

func TestParseRSSWithHTMLEntities(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed &amp; Special Characters</title>
    <link>https://example.com</link>
    <description>entities</description>
    <item>
      <title>Company didn&#8217;t fix users&#8217; issues &amp; more</title>
      <link>https://example.com/item1</link>
      <author>a@example.com (Writer)</author>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	items, _, err := parser.Run([]byte(rssData), "entities")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	expectedItemTitle := "Company didn’t fix users’ issues & more"
	if items[0].Title != expectedItemTitle {
		t.Errorf("Expected item title %q, got %q", expectedItemTitle, items[0].Title)
	}
}
