package brctc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/brctc/brctc/notify"
)

// stub renders "<name>:<title>" so tests can tell which view ran.
func stub(name string) func(Page) templ.Component {
	return func(p Page) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s:%s", name, p.Meta.Title)
			return err
		})
	}
}

func stubViews() ViewFuncs {
	return ViewFuncs{
		Home:     func(p Page, _ []BlogPost) templ.Component { return stub("home")(p) },
		About:    stub("about"),
		Services: stub("services"),
		Training: stub("training"),
		Contact:  func(p Page, _ ContactForm, _ FieldErrors) templ.Component { return stub("contact")(p) },
		Booking: func(p Page, w BookingWizard, _ FieldErrors) templ.Component {
			return stub(fmt.Sprintf("booking-step-%d", w.Step))(p)
		},
		Blog: func(p Page, posts []BlogPost, _ string, _ []string) templ.Component {
			return stub(fmt.Sprintf("blog-%d", len(posts)))(p)
		},
		Post:         func(p Page, _ BlogPost, _ []BlogPost) templ.Component { return stub("post")(p) },
		Auth:         func(p Page, _ AuthForm, _ FieldErrors, _ string) templ.Component { return stub("auth")(p) },
		Chat:         func(p Page, _ []ChatEntry) templ.Component { return stub("chat")(p) },
		ChatMessages: func(p Page, e []ChatEntry) templ.Component { return stub(fmt.Sprintf("chat-%d", len(e)))(p) },

		AdminDashboard:   func(p Page, _ Dashboard) templ.Component { return stub("dashboard")(p) },
		AdminBookings:    func(p Page, _ BookingList) templ.Component { return stub("bookings")(p) },
		AdminBookingRows: func(p Page, l BookingList) templ.Component { return stub(fmt.Sprintf("rows-%d", len(l.Bookings)))(p) },
		AdminMessages:    func(p Page, _ MessageList) templ.Component { return stub("messages")(p) },
		AdminMessageRows: func(p Page, l MessageList) templ.Component { return stub(fmt.Sprintf("rows-%d", len(l.Messages)))(p) },
		AdminBlog:        func(p Page, _ []BlogPost) templ.Component { return stub("admin-blog")(p) },
		AdminPostForm:    func(p Page, _ PostForm, _ FieldErrors) templ.Component { return stub("post-form")(p) },
		AdminSettings:    func(p Page, _ *SettingsEditor) templ.Component { return stub("settings")(p) },

		Forbidden:   stub("forbidden"),
		NotFound:    stub("not-found"),
		ServerError: stub("server-error"),
	}
}

type sentNotes struct {
	mu    sync.Mutex
	texts []string
}

func (s *sentNotes) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func setupTestApp(t *testing.T, opts ...Option) (*App, *sentNotes) {
	t.Helper()
	dir := t.TempDir()
	notes := &sentNotes{}
	notifier := WithNotifier(notify.NotifierFunc(func(_ context.Context, text string) error {
		notes.mu.Lock()
		defer notes.mu.Unlock()
		notes.texts = append(notes.texts, text)
		return nil
	}))
	app := New(SiteConfig{
		URL:           "https://brctc.test",
		DatabasePath:  filepath.Join(dir, "test.db"),
		UploadsDir:    filepath.Join(dir, "uploads"),
		SessionSecret: "test-secret-test-secret-test-sec",
		AdminEmail:    "admin@brctc.test",
		AdminPassword: "admin-password",
	}, stubViews(), append([]Option{notifier}, opts...)...)
	if err := app.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, notes
}

// browser keeps cookies between requests, like a real client.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, app *App) *browser {
	return &browser{t: t, app: app, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits form with the CSRF token a page load would have embedded.
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if b.cookies["_csrf"] == nil {
		b.get("/health")
	}
	csrf := b.cookies["_csrf"]
	if csrf == nil {
		b.t.Fatal("no CSRF cookie issued")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", csrf.Value)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) signIn(email, password string) {
	rec := b.post("/auth/signin", url.Values{"email": {email}, "password": {password}})
	if rec.Code != http.StatusSeeOther {
		b.t.Fatalf("sign in: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	app, _ := setupTestApp(t)
	rec := newBrowser(t, app).get("/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestWithMiddleware(t *testing.T) {
	app, _ := setupTestApp(t, WithMiddleware(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Centre", "brctc")
			return next(c)
		}
	}))
	rec := newBrowser(t, app).get("/health")
	if got := rec.Header().Get("X-Centre"); got != "brctc" {
		t.Errorf("X-Centre = %q", got)
	}
}

func TestNotFoundPage(t *testing.T) {
	app, _ := setupTestApp(t)
	rec := newBrowser(t, app).get("/no-such-page")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "not-found:") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRobots(t *testing.T) {
	app, _ := setupTestApp(t)
	body := newBrowser(t, app).get("/robots.txt").Body.String()
	for _, want := range []string{"Disallow: /admin", "Disallow: /chat", "Sitemap: https://brctc.test/sitemap.xml"} {
		if !strings.Contains(body, want) {
			t.Errorf("robots.txt missing %q", want)
		}
	}
}

func TestPublicPagesUseSettings(t *testing.T) {
	app, _ := setupTestApp(t)
	app.Store.UpsertSetting(context.Background(), "about_page_title", "Who We Are")
	app.Settings.Invalidate()

	rec := newBrowser(t, app).get("/about")
	if rec.Body.String() != "about:Who We Are" {
		t.Errorf("body = %q", rec.Body.String())
	}
	rec = newBrowser(t, app).get("/services")
	if rec.Body.String() != "services:"+SettingDefaults["services_page_title"] {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestBlogOnlyShowsPublishedPosts(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	app.Store.CreatePost(ctx, BlogPost{Title: "Live", Slug: "live", Content: "x", Status: PostPublished})
	app.Store.CreatePost(ctx, BlogPost{Title: "Hidden", Slug: "hidden", Content: "x"})
	app.Posts.Invalidate()

	br := newBrowser(t, app)
	if body := br.get("/blog").Body.String(); !strings.HasPrefix(body, "blog-1:") {
		t.Errorf("blog body = %q", body)
	}
	if rec := br.get("/blog/live"); rec.Code != http.StatusOK || rec.Body.String() != "post:Live" {
		t.Errorf("live post: %d %q", rec.Code, rec.Body.String())
	}
	rec := br.get("/blog/hidden")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/blog" {
		t.Errorf("draft post: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPublicListsSurviveReadFailure(t *testing.T) {
	app, _ := setupTestApp(t)
	var toasts []Toast
	app.Views.Blog = func(p Page, posts []BlogPost, _ string, _ []string) templ.Component {
		toasts = p.Toasts
		return stub(fmt.Sprintf("blog-%d", len(posts)))(p)
	}
	app.Store.Close()

	br := newBrowser(t, app)
	rec := br.get("/blog")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "blog-0:") {
		t.Errorf("blog: %d %q", rec.Code, rec.Body.String())
	}
	if len(toasts) != 1 || toasts[0].Kind != "error" {
		t.Errorf("toasts = %+v", toasts)
	}
	if rec := br.get("/"); rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "home:") {
		t.Errorf("home: %d %q", rec.Code, rec.Body.String())
	}
}

func TestFeeds(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	app.Store.CreatePost(ctx, BlogPost{Title: "Live", Slug: "live", Content: "x", Status: PostPublished})
	app.Store.CreatePost(ctx, BlogPost{Title: "Hidden", Slug: "hidden", Content: "x"})
	app.Posts.Invalidate()
	br := newBrowser(t, app)

	rec := br.get("/feed.xml")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("feed content type = %q", ct)
	}
	feed := rec.Body.String()
	if !strings.Contains(feed, "<link>https://brctc.test/blog/live</link>") {
		t.Errorf("feed missing published post: %s", feed)
	}
	if strings.Contains(feed, "hidden") {
		t.Error("feed lists a draft")
	}

	sitemap := br.get("/sitemap.xml").Body.String()
	for _, want := range []string{"<loc>https://brctc.test/book</loc>", "<loc>https://brctc.test/blog/live</loc>"} {
		if !strings.Contains(sitemap, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
}

func TestContactSubmit(t *testing.T) {
	app, notes := setupTestApp(t)
	br := newBrowser(t, app)

	rec := br.post("/contact", url.Values{"name": {"Sam"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid form status = %d", rec.Code)
	}

	rec = br.post("/contact", url.Values{
		"name":          {"Sam"},
		"email":         {"sam@example.com"},
		"message":       {"I need help today."},
		"urgency_level": {"high"},
	})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/contact" {
		t.Fatalf("status = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}
	msgs, _ := app.Store.ListContactMessages(context.Background())
	if len(msgs) != 1 || msgs[0].Urgency != UrgencyHigh || msgs[0].Status != MessageUnread {
		t.Errorf("stored messages = %+v", msgs)
	}
	if got := notes.list(); len(got) != 1 || !strings.Contains(got[0], "sam@example.com") {
		t.Errorf("notifications = %v", got)
	}
}

func bookingForm(step int, consent bool) url.Values {
	v := url.Values{
		"step":         {fmt.Sprint(step)},
		"name":         {"Jane Doe"},
		"email":        {"jane@example.com"},
		"service_type": {"individual"},
		"session_type": {"online"},
	}
	if consent {
		v.Set("consent_to_treatment", "true")
	}
	return v
}

func TestBookingWizardFlow(t *testing.T) {
	app, notes := setupTestApp(t)
	br := newBrowser(t, app)

	if body := br.get("/book").Body.String(); !strings.HasPrefix(body, "booking-step-1:") {
		t.Errorf("GET /book = %q", body)
	}

	rec := br.post("/book", url.Values{"step": {"1"}, "action": {"next"}})
	if rec.Code != http.StatusUnprocessableEntity || !strings.HasPrefix(rec.Body.String(), "booking-step-1:") {
		t.Errorf("empty step 1: %d %q", rec.Code, rec.Body.String())
	}

	form := bookingForm(1, false)
	form.Set("action", "next")
	if body := br.post("/book", form).Body.String(); !strings.HasPrefix(body, "booking-step-2:") {
		t.Errorf("next from step 1 = %q", body)
	}

	form = bookingForm(3, false)
	form.Set("action", "prev")
	if body := br.post("/book", form).Body.String(); !strings.HasPrefix(body, "booking-step-2:") {
		t.Errorf("prev from step 3 = %q", body)
	}

	form = bookingForm(4, false)
	form.Set("action", "submit")
	rec = br.post("/book", form)
	if rec.Code != http.StatusUnprocessableEntity || !strings.HasPrefix(rec.Body.String(), "booking-step-4:") {
		t.Errorf("submit without consent: %d %q", rec.Code, rec.Body.String())
	}
	if list, _ := app.Store.ListBookings(context.Background()); len(list) != 0 {
		t.Fatal("booking stored without consent")
	}

	form = bookingForm(4, true)
	form.Set("action", "submit")
	rec = br.post("/book", form)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/book" {
		t.Fatalf("submit: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
	list, _ := app.Store.ListBookings(context.Background())
	if len(list) != 1 {
		t.Fatalf("stored %d bookings, want 1", len(list))
	}
	if b := list[0]; b.Name != "Jane Doe" || b.SessionType != "online" || !b.ConsentToTreatment || b.Status != BookingPending {
		t.Errorf("booking = %+v", b)
	}
	if got := notes.list(); len(got) != 1 || !strings.Contains(got[0], "Individual Counseling") {
		t.Errorf("notifications = %v", got)
	}
}

func TestChatRequiresSignIn(t *testing.T) {
	app, _ := setupTestApp(t)
	rec := newBrowser(t, app).get("/chat")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth" {
		t.Errorf("anonymous /chat: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestChatSend(t *testing.T) {
	app, _ := setupTestApp(t)
	if _, err := app.Store.CreateUser(context.Background(), "client@brctc.test", "client-pass", "Client"); err != nil {
		t.Fatal(err)
	}
	br := newBrowser(t, app)
	br.signIn("client@brctc.test", "client-pass")

	rec := br.post("/chat/messages", url.Values{"message": {"Hello there"}})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("send status = %d", rec.Code)
	}
	if body := br.get("/chat/messages").Body.String(); !strings.HasPrefix(body, "chat-1:") {
		t.Errorf("messages fragment = %q", body)
	}
}

func TestAdminRequiresAdminRole(t *testing.T) {
	app, _ := setupTestApp(t)

	rec := newBrowser(t, app).get("/admin")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth" {
		t.Errorf("anonymous /admin: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}

	app.Store.CreateUser(context.Background(), "client@brctc.test", "client-pass", "Client")
	br := newBrowser(t, app)
	br.signIn("client@brctc.test", "client-pass")
	rec = br.get("/admin/bookings")
	if rec.Code != http.StatusForbidden || !strings.HasPrefix(rec.Body.String(), "forbidden:") {
		t.Errorf("non-admin /admin/bookings: %d %q", rec.Code, rec.Body.String())
	}
}

func TestAdminBookings(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	b, _ := app.Store.CreateBooking(ctx, Booking{Name: "Ann", Email: "ann@x.io", ServiceType: "family"})
	app.Store.CreateBooking(ctx, Booking{Name: "Ben", Email: "ben@x.io", ServiceType: "group"})

	br := newBrowser(t, app)
	br.signIn("admin@brctc.test", "admin-password")

	if body := br.get("/admin/bookings/rows?q=ann").Body.String(); !strings.HasPrefix(body, "rows-1:") {
		t.Errorf("filtered rows = %q", body)
	}

	rec := br.post("/admin/bookings/"+b.ID+"/status", url.Values{
		"status": {"confirmed"},
		"return": {"/admin/bookings?status=pending"},
	})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/bookings?status=pending" {
		t.Errorf("status update: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
	got, _ := app.Store.GetBooking(ctx, b.ID)
	if got.Status != BookingConfirmed {
		t.Errorf("Status = %q", got.Status)
	}

	rec = br.get("/admin/bookings/export.csv?status=confirmed")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "bookings-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Ann,") {
		t.Errorf("export = %q", rec.Body.String())
	}
}

func TestAdminMessageActions(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	m, _ := app.Store.CreateContactMessage(ctx, ContactMessage{Name: "Sam", Email: "sam@x.io", Message: "Hi"})

	br := newBrowser(t, app)
	br.signIn("admin@brctc.test", "admin-password")

	br.post("/admin/messages/"+m.ID+"/replied", nil)
	got, _ := app.Store.GetContactMessage(ctx, m.ID)
	if got.Status != MessageReplied || got.ResponseSentAt == nil {
		t.Errorf("after replied: %+v", got)
	}

	rec := br.post("/admin/messages/"+m.ID+"/status", url.Values{"status": {"bogus"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/messages" {
		t.Errorf("invalid status: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}

	br.post("/admin/messages/"+m.ID+"/delete", nil)
	if list, _ := app.Store.ListContactMessages(ctx); len(list) != 0 {
		t.Errorf("%d messages left after delete", len(list))
	}
}

func TestAdminPostSave(t *testing.T) {
	app, _ := setupTestApp(t)
	br := newBrowser(t, app)
	br.signIn("admin@brctc.test", "admin-password")

	rec := br.post("/admin/blog", url.Values{"title": {"Only a title"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid post status = %d", rec.Code)
	}

	rec = br.post("/admin/blog", url.Values{
		"title":   {"Finding Calm"},
		"content": {"Breathe in."},
		"status":  {"published"},
		"tags":    {"stress, calm"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save status = %d, body = %q", rec.Code, rec.Body.String())
	}
	post, err := app.Store.GetPublishedPost(context.Background(), "finding-calm")
	if err != nil {
		t.Fatalf("post not published under derived slug: %v", err)
	}
	if len(post.Tags) != 2 || post.PublishedAt == nil {
		t.Errorf("post = %+v", post)
	}
}

func TestAdminSettingsSave(t *testing.T) {
	app, _ := setupTestApp(t)
	br := newBrowser(t, app)
	br.signIn("admin@brctc.test", "admin-password")

	rec := br.post("/admin/settings", url.Values{"hero_title": {"Karibu"}, "not_a_setting": {"x"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	saved, _ := app.Store.ListSettings(context.Background())
	if saved["hero_title"] != "Karibu" {
		t.Errorf("hero_title = %q", saved["hero_title"])
	}
	if _, ok := saved["not_a_setting"]; ok {
		t.Error("unknown keys must not be stored")
	}

	br.post("/admin/settings", url.Values{"hero_title": {"Discarded"}, "action": {"reset"}})
	saved, _ = app.Store.ListSettings(context.Background())
	if saved["hero_title"] != "Karibu" {
		t.Errorf("reset wrote %q", saved["hero_title"])
	}
}

func TestAdminSettingsSaveUnchangedForm(t *testing.T) {
	app, _ := setupTestApp(t)
	br := newBrowser(t, app)
	br.signIn("admin@brctc.test", "admin-password")

	sub := app.Feed.Subscribe("admin_settings")
	defer sub.Close()

	form := url.Values{}
	for _, k := range SettingKeys() {
		form.Set(k, "")
	}
	if rec := br.post("/admin/settings", form); rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	saved, err := app.Store.ListSettings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 0 {
		t.Errorf("unchanged form stored %d settings: %v", len(saved), saved)
	}
	select {
	case ev := <-sub.Events():
		t.Errorf("unexpected change event %+v", ev)
	default:
	}
}

func TestReturnTo(t *testing.T) {
	app, _ := setupTestApp(t)
	tests := []struct {
		in, want string
	}{
		{"/admin/bookings?status=pending", "/admin/bookings?status=pending"},
		{"https://evil.example/admin/", "/admin/messages"},
		{"//evil.example", "/admin/messages"},
		{"/admin/\\evil", "/admin/messages"},
		{"", "/admin/messages"},
	}
	for _, tt := range tests {
		form := url.Values{"return": {tt.in}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		c := app.Echo.NewContext(req, httptest.NewRecorder())
		if got := returnTo(c, "/admin/messages"); got != tt.want {
			t.Errorf("returnTo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRealtimeAuthorize(t *testing.T) {
	user := &User{ID: "u1"}
	tests := []struct {
		viewer Viewer
		table  string
		want   bool
	}{
		{Viewer{}, TableBlogPosts, true},
		{Viewer{}, TableChatMessages, false},
		{Viewer{User: user}, TableChatMessages, true},
		{Viewer{User: user}, TableBookings, false},
		{Viewer{User: user, IsAdmin: true}, TableContactMessages, true},
		{Viewer{User: user, IsAdmin: true}, "users", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/realtime", nil)
		req = req.WithContext(context.WithValue(req.Context(), viewerCtxKey{}, tt.viewer))
		if got := realtimeAuthorize(req, tt.table); got != tt.want {
			t.Errorf("realtimeAuthorize(%+v, %q) = %v, want %v", tt.viewer, tt.table, got, tt.want)
		}
	}
}
