// Package navigation holds the menu section and breadcrumb trail of a rendered page.
package navigation

// Section is a top level menu entry of the site header.
type Section string

const (
	// Public pages like login, signup and errors highlight no menu entry.
	Public        Section = ""
	Events        Section = "events"
	Registrations Section = "registrations"
	CheckIn       Section = "checkin"
	Admin         Section = "admin"
	Account       Section = "account"
)

// Crumb is one step of the breadcrumb trail. Current marks the rendered page, which is not linked.
type Crumb struct {
	Title   string
	URL     string
	Current bool
}

// Context is what the layout needs to draw the header menu, page title and trail.
type Context struct {
	Section Section
	Page    string
	Title   string
	Trail   []Crumb
}

// For starts the navigation of a page titled title inside section.
func For(section Section, page, title string) *Context {
	return &Context{
		Section: section,
		Page:    page,
		Title:   title,
		Trail:   make([]Crumb, 0, 3), //nolint:mnd
	}
}

// Via appends a linked crumb leading towards the current page.
func (c *Context) Via(title, url string) *Context {
	c.Trail = append(c.Trail, Crumb{Title: title, URL: url})

	return c
}

// Here closes the trail with the current page. An empty title falls back to the page title.
func (c *Context) Here(title, url string) *Context {
	if title == "" {
		title = c.Title
	}

	c.Trail = append(c.Trail, Crumb{Title: title, URL: url, Current: true})

	return c
}

// InSection reports whether the header entry named section should be highlighted.
func (c *Context) InSection(section string) bool {
	return c != nil && c.Section != Public && string(c.Section) == section
}

// Is reports whether the page is the given page of the given section.
func (c *Context) Is(section Section, page string) bool {
	return c != nil && c.Section == section && c.Page == page
}
