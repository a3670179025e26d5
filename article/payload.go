package article

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	slugPattern      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugParamPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

const MaxTags = 20

// MutationPayload is the body of create and update requests.
type MutationPayload struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug,omitempty"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	AuthorID    int64      `json:"authorId,omitempty"`
	AuthorName  string     `json:"authorName,omitempty"`
	AuthorEmail string     `json:"authorEmail,omitempty"`
}

// Validate enforces the field constraints of the editor form.
func (p MutationPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.RuneLength(3, 180)),
		validation.Field(&p.Slug, validation.Match(slugPattern).Error("slug must use kebab-case alphanumeric characters")),
		validation.Field(&p.Excerpt, validation.RuneLength(0, 512)),
		validation.Field(&p.Content, validation.Required, validation.RuneLength(20, 0)),
		validation.Field(&p.Tags, validation.Length(0, MaxTags), validation.Each(validation.Required)),
		validation.Field(&p.Status, validation.Required, validation.In(StatusDraft, StatusPublished)),
		validation.Field(&p.AuthorID,
			validation.Min(int64(1)),
			validation.When(!p.hasAuthorIdentity(), validation.Required.Error("author information is missing")),
		),
		validation.Field(&p.AuthorEmail, is.EmailFormat),
	)
}

func (p MutationPayload) hasAuthorIdentity() bool {
	return strings.TrimSpace(p.AuthorName) != "" && strings.TrimSpace(p.AuthorEmail) != ""
}

// NormalizedTags trims names and drops blanks and duplicates, keeping order.
func (p MutationPayload) NormalizedTags() []string {
	seen := make(map[string]struct{}, len(p.Tags))
	out := make([]string, 0, len(p.Tags))
	for _, name := range p.Tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ValidSlugParam reports whether s is acceptable as a slug path parameter.
func ValidSlugParam(s string) bool {
	return s != "" && slugParamPattern.MatchString(s)
}

// NormalizePublishedAt gives published articles a publication time when the
// payload has none. Drafts keep whatever was sent, including nil.
func NormalizePublishedAt(status Status, publishedAt *time.Time, now time.Time) *time.Time {
	if publishedAt != nil {
		t := publishedAt.UTC()
		return &t
	}
	if status == StatusPublished {
		t := now.UTC().Truncate(time.Second)
		return &t
	}
	return nil
}
