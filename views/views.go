// Package views renders the site's pages. Templates live in templates/ and
// are compiled once at start; Funcs adapts them to brctc.ViewFuncs.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/a-h/templ"

	"github.com/brctc/brctc"
)

//go:embed templates/*.html
var templateFS embed.FS

// Shared files parsed into every page set.
var layouts = []string{"templates/layout.html", "templates/admin_layout.html", "templates/partials.html"}

// pages maps a page file to its template set. Each set is the shared
// layouts plus the one page, so every page can define its own "content".
var pages = mustParsePages()

func mustParsePages() map[string]*template.Template {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	base := template.Must(template.New("base").Funcs(funcMap).ParseFS(templateFS, layouts...))

	sets := make(map[string]*template.Template)
	for _, name := range entries {
		if isLayout(name) {
			continue
		}
		t := template.Must(template.Must(base.Clone()).ParseFS(templateFS, name))
		sets[strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")] = t
	}
	return sets
}

func isLayout(name string) bool {
	for _, l := range layouts {
		if l == name {
			return true
		}
	}
	return false
}

// view returns a component executing the named template of page's set.
// A page's own file is named "<page>.html"; fragments are looked up by
// their define name.
func view(page, name string, data any) templ.Component {
	set, ok := pages[page]
	if !ok {
		panic(fmt.Sprintf("views: unknown page %q", page))
	}
	t := set.Lookup(name)
	if t == nil {
		panic(fmt.Sprintf("views: page %q has no template %q", page, name))
	}
	return templ.FromGoHTML(t, data)
}

func pageView(page string, data any) templ.Component {
	return view(page, page+".html", data)
}

// Page data shapes. Each embeds brctc.Page so layouts see the same fields.
type (
	homeData struct {
		brctc.Page
		Latest []brctc.BlogPost
	}
	contactData struct {
		brctc.Page
		Form   brctc.ContactForm
		Errors brctc.FieldErrors
	}
	bookingData struct {
		brctc.Page
		Wizard brctc.BookingWizard
		Errors brctc.FieldErrors
	}
	blogData struct {
		brctc.Page
		Posts     []brctc.BlogPost
		ActiveTag string
		Tags      []string
	}
	postData struct {
		brctc.Page
		Post    brctc.BlogPost
		Related []brctc.BlogPost
	}
	authData struct {
		brctc.Page
		Form    brctc.AuthForm
		Errors  brctc.FieldErrors
		Failure string
	}
	chatData struct {
		brctc.Page
		Entries []brctc.ChatEntry
	}
	dashboardData struct {
		brctc.Page
		Dashboard brctc.Dashboard
	}
	bookingsData struct {
		brctc.Page
		List brctc.BookingList
	}
	messagesData struct {
		brctc.Page
		List brctc.MessageList
	}
	adminBlogData struct {
		brctc.Page
		Posts []brctc.BlogPost
	}
	postFormData struct {
		brctc.Page
		Form   brctc.PostForm
		Errors brctc.FieldErrors
	}
	settingsData struct {
		brctc.Page
		Editor *brctc.SettingsEditor
	}
)

// Funcs returns the view functions for brctc.New.
func Funcs() brctc.ViewFuncs {
	return brctc.ViewFuncs{
		Home: func(p brctc.Page, latest []brctc.BlogPost) templ.Component {
			return pageView("home", homeData{p, latest})
		},
		About:    func(p brctc.Page) templ.Component { return pageView("about", p) },
		Services: func(p brctc.Page) templ.Component { return pageView("services", p) },
		Training: func(p brctc.Page) templ.Component { return pageView("training", p) },
		Contact: func(p brctc.Page, form brctc.ContactForm, errs brctc.FieldErrors) templ.Component {
			return pageView("contact", contactData{p, form, errs})
		},
		Booking: func(p brctc.Page, w brctc.BookingWizard, errs brctc.FieldErrors) templ.Component {
			return pageView("booking", bookingData{p, w, errs})
		},
		Blog: func(p brctc.Page, posts []brctc.BlogPost, activeTag string, tags []string) templ.Component {
			return pageView("blog", blogData{p, posts, activeTag, tags})
		},
		Post: func(p brctc.Page, post brctc.BlogPost, related []brctc.BlogPost) templ.Component {
			return pageView("post", postData{p, post, related})
		},
		Auth: func(p brctc.Page, form brctc.AuthForm, errs brctc.FieldErrors, failure string) templ.Component {
			return pageView("auth", authData{p, form, errs, failure})
		},

		Chat: func(p brctc.Page, entries []brctc.ChatEntry) templ.Component {
			return pageView("chat", chatData{p, entries})
		},
		ChatMessages: func(p brctc.Page, entries []brctc.ChatEntry) templ.Component {
			return view("chat", "chat-messages", chatData{p, entries})
		},

		AdminDashboard: func(p brctc.Page, d brctc.Dashboard) templ.Component {
			return pageView("admin_dashboard", dashboardData{p, d})
		},
		AdminBookings: func(p brctc.Page, l brctc.BookingList) templ.Component {
			return pageView("admin_bookings", bookingsData{p, l})
		},
		AdminBookingRows: func(p brctc.Page, l brctc.BookingList) templ.Component {
			return view("admin_bookings", "booking-rows", bookingsData{p, l})
		},
		AdminMessages: func(p brctc.Page, l brctc.MessageList) templ.Component {
			return pageView("admin_messages", messagesData{p, l})
		},
		AdminMessageRows: func(p brctc.Page, l brctc.MessageList) templ.Component {
			return view("admin_messages", "message-rows", messagesData{p, l})
		},
		AdminBlog: func(p brctc.Page, posts []brctc.BlogPost) templ.Component {
			return pageView("admin_blog", adminBlogData{p, posts})
		},
		AdminPostForm: func(p brctc.Page, form brctc.PostForm, errs brctc.FieldErrors) templ.Component {
			return pageView("admin_post_form", postFormData{p, form, errs})
		},
		AdminSettings: func(p brctc.Page, ed *brctc.SettingsEditor) templ.Component {
			return pageView("admin_settings", settingsData{p, ed})
		},

		Forbidden:   func(p brctc.Page) templ.Component { return pageView("forbidden", p) },
		NotFound:    func(p brctc.Page) templ.Component { return pageView("not_found", p) },
		ServerError: func(p brctc.Page) templ.Component { return pageView("server_error", p) },
	}
}
