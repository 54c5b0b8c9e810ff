package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type opmlDocument struct {
	XMLName xml.Name  `xml:"opml"`
	Body    *opmlBody `xml:"body"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

type yamlDocument struct {
	Subscriptions *[]Descriptor `yaml:"subscriptions"`
}

// SubscriptionLoader turns a subscription export into feed descriptors.
type SubscriptionLoader struct{}

func NewSubscriptionLoader() *SubscriptionLoader {
	return &SubscriptionLoader{}
}

// Run reads path and returns its feeds in document order. The format is
// chosen by extension: .opml/.xml for OPML exports, .yml/.yaml for a plain
// YAML list.
func (l *SubscriptionLoader) Run(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoaderError{Path: path, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	var descriptors []Descriptor
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		descriptors, err = l.parseYAML(data)
	case ".opml", ".xml", "":
		descriptors, err = l.parseOPML(data)
	default:
		err = fmt.Errorf("unsupported subscription format %q", ext)
	}
	if err != nil {
		return nil, &LoaderError{Path: path, Err: err}
	}

	slog.Debug("Subscriptions loaded", "path", path, "count", len(descriptors))
	return descriptors, nil
}

func (l *SubscriptionLoader) parseOPML(data []byte) ([]Descriptor, error) {
	var doc opmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}
	if doc.Body == nil {
		return nil, errors.New("OPML document has no body")
	}

	descriptors := make([]Descriptor, 0)
	var walk func(outlines []opmlOutline)
	walk = func(outlines []opmlOutline) {
		for _, o := range outlines {
			if url := strings.TrimSpace(o.XMLURL); url != "" {
				descriptors = append(descriptors, Descriptor{
					Name: l.displayName(o.Title, o.Text, url),
					URL:  url,
				})
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)

	return descriptors, nil
}

func (l *SubscriptionLoader) parseYAML(data []byte) ([]Descriptor, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Subscriptions == nil {
		return nil, errors.New("missing subscriptions list")
	}

	descriptors := make([]Descriptor, 0, len(*doc.Subscriptions))
	for i, d := range *doc.Subscriptions {
		url := strings.TrimSpace(d.URL)
		if url == "" {
			return nil, fmt.Errorf("subscription at index %d: url is required", i)
		}
		descriptors = append(descriptors, Descriptor{
			Name: l.displayName(d.Name, "", url),
			URL:  url,
		})
	}

	return descriptors, nil
}

func (l *SubscriptionLoader) displayName(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}
