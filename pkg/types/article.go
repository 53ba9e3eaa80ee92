// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrIncompleteOutline reports an outline with a missing or empty field.
var ErrIncompleteOutline = errors.New("incomplete outline")

// Subsection is one bullet under an outline section.
type Subsection struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// OutlineSection describes one body section of an article outline.
type OutlineSection struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Description explains what the section covers. It seeds the expansion
	// request and the fallback text.
	Description string `json:"description" yaml:"description"`

	// Subsections lists the points the section should cover, in order.
	Subsections []Subsection `json:"subsections" yaml:"subsections"`
}

// Outline is the structured plan an article body is expanded from.
type Outline struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Introduction summarizes what the opening paragraphs should say.
	Introduction string `json:"introduction" yaml:"introduction"`

	// Sections lists the body sections in order.
	Sections []OutlineSection `json:"sections" yaml:"sections"`

	// Conclusion summarizes what the closing section should say.
	Conclusion string `json:"conclusion" yaml:"conclusion"`
}

// Validate reports the first missing or empty field. An outline that fails
// validation cannot be expanded.
func (o Outline) Validate() error {
	switch {
	case strings.TrimSpace(o.Title) == "":
		return fmt.Errorf("%w: title is empty", ErrIncompleteOutline)
	case strings.TrimSpace(o.Introduction) == "":
		return fmt.Errorf("%w: introduction is empty", ErrIncompleteOutline)
	case len(o.Sections) == 0:
		return fmt.Errorf("%w: no sections", ErrIncompleteOutline)
	case strings.TrimSpace(o.Conclusion) == "":
		return fmt.Errorf("%w: conclusion is empty", ErrIncompleteOutline)
	}
	for i, s := range o.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("%w: section %d has no title", ErrIncompleteOutline, i+1)
		}
	}
	return nil
}

// ImageRef points at a vetted stock photo and carries its attribution.
// Every URL field uses https and belongs to the approved image source.
type ImageRef struct {
	// PreviewURL is the hotlinkable image URL.
	PreviewURL string `json:"preview_url" yaml:"preview_url"`

	// AltText describes the image for screen readers.
	AltText string `json:"alt_text" yaml:"alt_text"`

	// CreditName is the photographer's display name.
	CreditName string `json:"credit_name" yaml:"credit_name"`

	// CreditProfileURL links to the photographer's profile page.
	CreditProfileURL string `json:"credit_profile_url" yaml:"credit_profile_url"`

	// SourcePageURL links to the photo's page on the image source.
	SourcePageURL string `json:"source_page_url" yaml:"source_page_url"`
}

// URLs returns every URL field in a fixed order.
func (r ImageRef) URLs() []string {
	return []string{r.PreviewURL, r.CreditProfileURL, r.SourcePageURL}
}

// Metadata is the tag and category data generated for an article.
type Metadata struct {
	Tags     []string `json:"tags" yaml:"tags"`
	Category string   `json:"category" yaml:"category"`
}

// Document is a finished article ready for persistence.
type Document struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Body is the markdown body without frontmatter.
	Body string `json:"body" yaml:"-"`

	// CoverImage is the vetted cover photo.
	CoverImage *ImageRef `json:"cover_image,omitempty" yaml:"cover_image,omitempty"`

	// Tags lists topic tags.
	Tags []string `json:"tags" yaml:"tags"`

	// Category is the single category the article is filed under.
	Category string `json:"category" yaml:"category"`

	// CreatedDate is when the article was assembled.
	CreatedDate time.Time `json:"created_date" yaml:"created_date"`

	// InlineImages lists optional photos for use inside the article.
	InlineImages []ImageRef `json:"inline_images,omitempty" yaml:"inline_images,omitempty"`
}

// Images returns the cover image (if any) followed by the inline images.
func (d Document) Images() []ImageRef {
	var refs []ImageRef
	if d.CoverImage != nil {
		refs = append(refs, *d.CoverImage)
	}
	return append(refs, d.InlineImages...)
}
