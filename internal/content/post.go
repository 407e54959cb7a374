package content

import "time"

// PostSummary is the list view of a blog post.
type PostSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Excerpt      string    `json:"excerpt,omitempty"`
	Author       string    `json:"author,omitempty"`
	MainImageURL string    `json:"main_image_url,omitempty"`
	Categories   []string  `json:"categories,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Post is a full blog post including its Portable Text body.
type Post struct {
	PostSummary
	SEOTitle       string  `json:"seo_title,omitempty"`
	SEODescription string  `json:"seo_description,omitempty"`
	Body           []Block `json:"body"`
}

// PostList is one page of summaries plus the total number of posts.
type PostList struct {
	Total int           `json:"total"`
	Posts []PostSummary `json:"posts"`
}

// LastModified returns UpdatedAt, falling back to PublishedAt.
func (p PostSummary) LastModified() time.Time {
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt
	}
	return p.PublishedAt
}

// Block is one Portable Text block. Image blocks carry URL and Alt instead
// of children.
type Block struct {
	Type     string    `json:"_type"`
	Key      string    `json:"_key,omitempty"`
	Style    string    `json:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`
	URL      string    `json:"url,omitempty"`
	Alt      string    `json:"alt,omitempty"`
}

// Span is a run of text with decorator and annotation marks.
type Span struct {
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarkDef defines an annotation referenced by key from Span.Marks.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href,omitempty"`
}

// Sanity document JSON shapes. The GROQ projections below flatten
// references so one round trip is enough.
type sanityPostSummary struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Excerpt      string    `json:"excerpt"`
	Author       string    `json:"author"`
	MainImageURL string    `json:"mainImageUrl"`
	Categories   []string  `json:"categories"`
	PublishedAt  time.Time `json:"publishedAt"`
	UpdatedAt    time.Time `json:"_updatedAt"`
}

func (s sanityPostSummary) summary() PostSummary {
	return PostSummary{
		ID:           s.ID,
		Title:        s.Title,
		Slug:         s.Slug,
		Excerpt:      s.Excerpt,
		Author:       s.Author,
		MainImageURL: s.MainImageURL,
		Categories:   s.Categories,
		PublishedAt:  s.PublishedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

type sanityPost struct {
	sanityPostSummary
	SEOTitle       string  `json:"seoTitle"`
	SEODescription string  `json:"seoDescription"`
	Body           []Block `json:"body"`
}

type sanityPostList struct {
	Total int                 `json:"total"`
	Posts []sanityPostSummary `json:"posts"`
}

const publishedPosts = `*[_type == "post" && defined(slug.current) && !(_id in path("drafts.**"))]`

const summaryFields = `
  _id,
  title,
  "slug": slug.current,
  excerpt,
  "author": author->name,
  "mainImageUrl": mainImage.asset->url,
  "categories": categories[]->title,
  publishedAt,
  _updatedAt`

var (
	listPostsQuery = `{
  "total": count(` + publishedPosts + `),
  "posts": ` + publishedPosts + ` | order(publishedAt desc) [$start...$end] {` + summaryFields + `
  }
}`

	getPostQuery = publishedPosts + `[slug.current == $slug][0]{` + summaryFields + `,
  seoTitle,
  seoDescription,
  body[]{
    ...,
    _type == "image" => {"url": asset->url, alt}
  }
}`

	postSlugsQuery = publishedPosts + ` | order(publishedAt desc) {` + summaryFields + `
}`
)
