package presenter

import (
	"geoconsole/models"
)

// Context is what computed labels may read when a page is rendered.
type Context struct {
	User    string
	Team    models.Team
	HasTeam bool
}

// Label is either a fixed string or a function of the render Context.
type Label struct {
	static  string
	compute func(Context) string
}

func StaticLabel(text string) Label {
	return Label{static: text}
}

func ComputedLabel(compute func(Context) string) Label {
	return Label{compute: compute}
}

func (l Label) IsComputed() bool { return l.compute != nil }

func (l Label) Render(ctx Context) string {
	if l.compute != nil {
		return l.compute(ctx)
	}
	return l.static
}

type Breadcrumb struct {
	Title Label
	// Href is empty for the current page.
	Href string
}

type RenderedCrumb struct {
	Title string `json:"title"`
	Href  string `json:"href,omitempty"`
}

func RenderBreadcrumbs(ctx Context, crumbs []Breadcrumb) []RenderedCrumb {
	out := make([]RenderedCrumb, 0, len(crumbs))
	for _, crumb := range crumbs {
		out = append(out, RenderedCrumb{Title: crumb.Title.Render(ctx), Href: crumb.Href})
	}
	return out
}

// PageInfo describes the header of a console page.
type PageInfo struct {
	Title       Label
	Breadcrumbs []Breadcrumb
}

type RenderedPage struct {
	Title       string          `json:"title"`
	Breadcrumbs []RenderedCrumb `json:"breadcrumbs"`
}

func (p PageInfo) Render(ctx Context) RenderedPage {
	return RenderedPage{
		Title:       p.Title.Render(ctx),
		Breadcrumbs: RenderBreadcrumbs(ctx, p.Breadcrumbs),
	}
}

var (
	home = Breadcrumb{Title: StaticLabel("Home"), Href: "#/"}

	KeysPage = PageInfo{
		Title: StaticLabel("API keys"),
		Breadcrumbs: []Breadcrumb{
			home,
			{Title: StaticLabel("Maps"), Href: "#/maps"},
			{Title: StaticLabel("API keys")},
		},
	}

	KeyPage = PageInfo{
		Title: StaticLabel("API key settings"),
		Breadcrumbs: []Breadcrumb{
			home,
			{Title: StaticLabel("Maps"), Href: "#/maps"},
			{Title: StaticLabel("API keys"), Href: "#/maps/api-keys"},
			{Title: StaticLabel("API key settings")},
		},
	}

	DatasetsPage = PageInfo{
		Title: StaticLabel("GeoJSON API"),
		Breadcrumbs: []Breadcrumb{
			home,
			{Title: StaticLabel("API services")},
		},
	}

	TeamPage = PageInfo{
		Title: ComputedLabel(func(ctx Context) string {
			if !ctx.HasTeam {
				return "Team settings"
			}
			return ctx.Team.Name + " settings"
		}),
		Breadcrumbs: []Breadcrumb{
			home,
			{Title: ComputedLabel(func(ctx Context) string {
				if !ctx.HasTeam {
					return "Team"
				}
				return ctx.Team.Name
			}), Href: "#/team/general"},
			{Title: StaticLabel("General")},
		},
	}
)
