// Package docs holds the documentation topics shown by pft topic.
package docs

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed *.md
var docs embed.FS

// Topic returns the content of a documentation topic. "*" returns them all.
func Topic(topic string) (string, error) {
	if topic == "*" {
		all, err := All()
		if err != nil {
			return "", err
		}
		return Topics(all...)
	}
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// Topics returns the content of several topics, one after the other.
func Topics(topics ...string) (string, error) {
	var b bytes.Buffer
	for _, topic := range topics {
		content, err := Topic(topic)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// All returns the sorted names of the topics, the readme excepted.
func All() ([]string, error) {
	entries, err := fs.ReadDir(docs, ".")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		base := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if e.IsDir() || base == "readme" {
			continue
		}
		topics = append(topics, base)
	}
	sort.Strings(topics)
	return topics, nil
}
