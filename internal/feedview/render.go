package feedview

import (
	"fmt"
	"html"
	"strings"
	"time"

	"nootboard/internal/domain"
)

// CanDelete reports whether the viewer identity should see a delete
// affordance on a post. Compared case-insensitively; this is advisory UI
// only, the authoritative check lives in the post service.
func CanDelete(viewer, owner string, admins []string) bool {
	if viewer == "" {
		return false
	}
	viewer = strings.ToLower(viewer)
	if viewer == strings.ToLower(owner) {
		return true
	}
	for _, a := range admins {
		if viewer == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// renderPost builds the markup for a single post, mirroring the feed
// page's article structure. Text content is already stored as formatted
// HTML (see domain.FormatText) and is inserted verbatim.
func renderPost(b *strings.Builder, post domain.Post, viewer string, admins []string) {
	fmt.Fprintf(b, `<article class="post" data-id="%s" data-username="%s">`,
		html.EscapeString(post.ID), html.EscapeString(post.Username))
	b.WriteString(`<div class="post-content">`)

	switch post.Type {
	case domain.PostText:
		fmt.Fprintf(b, `<div class="post-text">%s</div>`, post.Content)
	case domain.PostPhoto:
		fmt.Fprintf(b, `<img src="%s" alt="Photo" class="post-media">`, html.EscapeString(post.Content))
		renderCaption(b, post.Caption)
	case domain.PostVideo:
		fmt.Fprintf(b, `<video controls class="post-media"><source src="%s" type="video/mp4"></video>`,
			html.EscapeString(post.Content))
		renderCaption(b, post.Caption)
	case domain.PostAudio:
		fmt.Fprintf(b, `<audio controls class="post-media"><source src="%s" type="audio/mpeg"></audio>`,
			html.EscapeString(post.Content))
		renderCaption(b, post.Caption)
	}

	date := post.Date
	if t, err := time.Parse(time.RFC3339, post.Date); err == nil {
		date = t.Format("02 Jan 2006 15:04")
	}
	fmt.Fprintf(b, `<div class="post-meta">%s <a href="https://t.me/%s" target="_blank">`+
		`<img class="user-avatar" alt="Avatar %s" src="https://t.me/i/userpic/320/%s.jpg">@%s</a></div>`,
		html.EscapeString(date),
		html.EscapeString(post.Username), html.EscapeString(post.Username),
		html.EscapeString(post.Username), html.EscapeString(post.Username))

	if CanDelete(viewer, post.Username, admins) {
		fmt.Fprintf(b, `<button class="post-delete" data-id="%s">delete</button>`, html.EscapeString(post.ID))
	}

	b.WriteString(`</div></article>`)
}

func renderCaption(b *strings.Builder, caption *string) {
	if caption == nil || *caption == "" {
		return
	}
	fmt.Fprintf(b, `<div class="post-caption">%s</div>`, html.EscapeString(*caption))
}
