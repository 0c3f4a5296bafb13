package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const (
	blogLayoutBase    = "grid grid-cols-1 gap-8 lg:grid-cols-3"
	blogPrimaryClass  = "lg:col-span-2"
	blogSidebarClass  = "lg:col-span-1"
	blogStickyWrapper = "lg:sticky lg:top-24"
)

// BlogLayoutProps configures BlogLayout. Sidebar is optional; Class is merged
// over the grid's base classes.
type BlogLayoutProps struct {
	Children templ.Component
	Sidebar  templ.Component
	Class    string
	Merge    ClassMerger // defaults to MergeClasses
}

// BlogLayout arranges Children and an optional Sidebar in a responsive grid.
// On wide screens the primary column takes two thirds and the sidebar sticks
// near the top of the viewport. Without a sidebar no aside is emitted.
func BlogLayout(props BlogLayoutProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		merge := props.Merge
		if merge == nil {
			merge = MergeClasses
		}
		h := newHTMLWriter(w)
		h.raw("<div")
		h.attr("class", merge(blogLayoutBase, props.Class))
		h.raw(">")
		h.raw("<div")
		h.attr("class", blogPrimaryClass)
		h.raw(">")
		if h.err != nil {
			return h.err
		}
		if props.Children != nil {
			if err := props.Children.Render(ctx, w); err != nil {
				return err
			}
		}
		h.raw("</div>")
		if props.Sidebar != nil {
			h.raw("<aside")
			h.attr("class", blogSidebarClass)
			h.raw("><div")
			h.attr("class", blogStickyWrapper)
			h.raw(">")
			if h.err != nil {
				return h.err
			}
			if err := props.Sidebar.Render(ctx, w); err != nil {
				return err
			}
			h.raw("</div></aside>")
		}
		h.raw("</div>")
		return h.err
	})
}
