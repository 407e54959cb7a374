package content

import (
	"html"
	"html/template"
	"net/url"
	"strings"
)

var decorators = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "s",
}

var blockStyles = map[string]string{
	"normal":     "p",
	"h1":         "h2",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"blockquote": "blockquote",
}

// RenderPortableText converts Portable Text blocks to HTML. Consecutive list
// items are grouped into <ul>/<ol> by level. Text is always escaped and link
// annotations are dropped unless their href is http(s), mailto or relative.
func RenderPortableText(blocks []Block) template.HTML {
	var (
		b     strings.Builder
		lists []string
	)
	closeLists := func(depth int) {
		for len(lists) > depth {
			b.WriteString("</li></")
			b.WriteString(lists[len(lists)-1])
			b.WriteString(">")
			lists = lists[:len(lists)-1]
		}
	}

	for _, blk := range blocks {
		switch blk.Type {
		case "block":
		case "image":
			closeLists(0)
			writeImage(&b, blk)
			continue
		default:
			continue
		}

		if blk.ListItem != "" {
			tag := "ul"
			if blk.ListItem == "number" {
				tag = "ol"
			}
			level := blk.Level
			if level < 1 {
				level = 1
			}
			closeLists(level)
			if len(lists) == level && lists[level-1] != tag {
				closeLists(level - 1)
			}
			if len(lists) == level {
				b.WriteString("</li><li>")
			}
			for len(lists) < level {
				b.WriteString("<")
				b.WriteString(tag)
				b.WriteString("><li>")
				lists = append(lists, tag)
			}
			writeSpans(&b, blk)
			continue
		}

		closeLists(0)
		tag, ok := blockStyles[blk.Style]
		if !ok {
			tag = "p"
		}
		b.WriteString("<" + tag + ">")
		writeSpans(&b, blk)
		b.WriteString("</" + tag + ">")
	}
	closeLists(0)
	// All dynamic text above passed through html.EscapeString.
	return template.HTML(b.String()) //nolint:gosec
}

func writeSpans(b *strings.Builder, blk Block) {
	links := make(map[string]string, len(blk.MarkDefs))
	for _, def := range blk.MarkDefs {
		if def.Type == "link" {
			if href, ok := SafeHref(def.Href); ok {
				links[def.Key] = href
			}
		}
	}

	for _, span := range blk.Children {
		if span.Type != "" && span.Type != "span" {
			continue
		}
		closers := make([]string, 0, len(span.Marks))
		for _, mark := range span.Marks {
			if tag, ok := decorators[mark]; ok {
				b.WriteString("<" + tag + ">")
				closers = append(closers, "</"+tag+">")
				continue
			}
			if href, ok := links[mark]; ok {
				b.WriteString(`<a href="`)
				b.WriteString(html.EscapeString(href))
				b.WriteString(`"`)
				if isExternal(href) {
					b.WriteString(` rel="noopener noreferrer"`)
				}
				b.WriteString(">")
				closers = append(closers, "</a>")
			}
		}
		b.WriteString(strings.ReplaceAll(html.EscapeString(span.Text), "\n", "<br>"))
		for i := len(closers) - 1; i >= 0; i-- {
			b.WriteString(closers[i])
		}
	}
}

func writeImage(b *strings.Builder, blk Block) {
	src, ok := SafeHref(blk.URL)
	if !ok || !isExternal(src) {
		return
	}
	b.WriteString(`<figure><img src="`)
	b.WriteString(html.EscapeString(src))
	b.WriteString(`" alt="`)
	b.WriteString(html.EscapeString(blk.Alt))
	b.WriteString(`" loading="lazy"></figure>`)
}

// SafeHref reports whether raw is an http(s), mailto or site-relative URL
// and returns it trimmed.
func SafeHref(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "#") {
		return raw, true
	}
	if strings.HasPrefix(raw, "/") {
		if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) {
			return "", false
		}
		return raw, true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "", false
		}
		return raw, true
	case "mailto":
		return raw, true
	default:
		return "", false
	}
}

func isExternal(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
