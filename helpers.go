package brctc

import (
	"encoding/json"
	"math"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/brctc/brctc/markdown"
)

// Slugify converts a title to a URL-safe slug: lowercase ASCII letters and
// digits, with every other run of characters collapsed into a single '-'.
// A trailing separator is dropped and no leading separator is produced.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// FilterEmpty trims every value and drops the blank ones.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RelatedPosts finds up to limit posts sharing at least one tag with current.
func RelatedPosts(current BlogPost, posts []BlogPost, limit int) []BlogPost {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := normalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []BlogPost
	for _, p := range posts {
		if len(related) == limit {
			break
		}
		if p.ID == current.ID {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

const wordsPerMinute = 200

// ReadingTime returns the estimated minutes to read content, rounded up.
func ReadingTime(content string) int {
	words := len(strings.Fields(markdown.PlainText(content)))
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// Excerpt returns the post's excerpt, or the first max runes of its
// plain-text content.
func Excerpt(p BlogPost, max int) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	text := []rune(markdown.PlainText(p.Content))
	if len(text) <= max {
		return string(text)
	}
	return strings.TrimSpace(string(text[:max])) + "…"
}

// FormatDate renders t as "January 2, 2006", or "" for a nil time.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// OrganizationJsonLD returns a JSON-LD string describing the centre.
func OrganizationJsonLD(cfg SiteConfig, s Settings) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "MedicalOrganization",
		"name":        s.Get("site_title", cfg.Name),
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if phone := s.Setting("contact_phone"); phone != "" {
		data["telephone"] = phone
	}
	if email := s.Setting("contact_email"); email != "" {
		data["email"] = email
	}
	if addr := s.Setting("contact_address"); addr != "" {
		data["address"] = addr
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post BlogPost, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": Excerpt(post, 160),
		"url":         postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.PublishedAt != nil {
		data["datePublished"] = post.PublishedAt.Format(time.RFC3339)
	}
	if post.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if post.FeaturedImage != "" {
		data["image"] = post.FeaturedImage
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
