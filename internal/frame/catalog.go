package frame

import (
	"fmt"
	"sort"
)

// CampaignFrameURL is the hosted campaign border the tool was built around.
const CampaignFrameURL = "https://raw.githubusercontent.com/md-asif-rahmed/social-assets/main/campaign_frame_haiz.png"

// Catalog is an ordered set of frame templates keyed by ID.
type Catalog struct {
	templates []Template
}

// Builtin returns the frames shipped with the program.
func Builtin() *Catalog {
	return NewCatalog(
		Template{ID: "classic", Name: "Classic Ring", URL: "embedded:classic", Mode: ModeProfile, AspectRatio: 1},
		Template{ID: "classic-post", Name: "Classic Post Border", URL: "embedded:classic-post", Mode: ModePost, AspectRatio: ModePost.AspectRatio()},
		Template{ID: "campaign-frame-fixed", Name: "Election Campaign Frame", URL: CampaignFrameURL, Mode: ModeProfile, AspectRatio: 1},
	)
}

// NewCatalog creates a catalog; later templates replace earlier ones with the
// same ID.
func NewCatalog(templates ...Template) *Catalog {
	c := &Catalog{}
	for _, t := range templates {
		c.Add(t)
	}
	return c
}

// Add inserts t or replaces the template with the same ID in place.
func (c *Catalog) Add(t Template) {
	if t.Mode == "" {
		t.Mode = ModeProfile
	}
	for i := range c.templates {
		if c.templates[i].ID == t.ID {
			c.templates[i] = t
			return
		}
	}
	c.templates = append(c.templates, t)
}

// All returns every template in insertion order.
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Filter returns the templates for mode.
func (c *Catalog) Filter(mode Mode) []Template {
	var out []Template
	for _, t := range c.templates {
		if t.Mode == mode {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a template by ID.
func (c *Catalog) Lookup(id string) (Template, bool) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Default returns the first template of mode.
func (c *Catalog) Default(mode Mode) (Template, error) {
	for _, t := range c.templates {
		if t.Mode == mode {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("no frame available for mode %s", mode)
}

// IDs returns the sorted template IDs.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.templates))
	for _, t := range c.templates {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	return ids
}

// Resolve interprets sel as a catalog ID or, failing that, as a source
// reference for an ad-hoc frame in mode.
func (c *Catalog) Resolve(sel string, mode Mode) (Template, error) {
	if sel == "" {
		return c.Default(mode)
	}
	if t, ok := c.Lookup(sel); ok {
		return t, nil
	}
	return Template{
		ID:          sel,
		Name:        sel,
		URL:         sel,
		Mode:        mode,
		AspectRatio: mode.AspectRatio(),
	}, nil
}
