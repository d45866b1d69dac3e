package brctc

import (
	"strings"
)

// ContactForm is the public contact form.
type ContactForm struct {
	Name             string `form:"name"`
	Email            string `form:"email"`
	Phone            string `form:"phone"`
	Subject          string `form:"subject"`
	ServiceType      string `form:"service_type"`
	PreferredContact string `form:"preferred_contact"`
	Urgency          string `form:"urgency_level"`
	Message          string `form:"message"`
}

// Validate checks the required fields.
func (f ContactForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "Please enter your name.")
	}
	email := strings.TrimSpace(f.Email)
	if email == "" {
		errs.Add("email", "Please enter your email address.")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Please enter a valid email address.")
	}
	if strings.TrimSpace(f.Message) == "" {
		errs.Add("message", "Please enter a message.")
	}
	return errs
}

// ContactMessage maps the form onto a new unread message.
func (f ContactForm) ContactMessage() ContactMessage {
	return ContactMessage{
		Name:             strings.TrimSpace(f.Name),
		Email:            strings.TrimSpace(f.Email),
		Phone:            strings.TrimSpace(f.Phone),
		Subject:          strings.TrimSpace(f.Subject),
		ServiceType:      f.ServiceType,
		PreferredContact: f.PreferredContact,
		Urgency:          Urgency(f.Urgency),
		Message:          strings.TrimSpace(f.Message),
		Status:           MessageUnread,
	}
}

// PostForm is the back-office blog editor.
type PostForm struct {
	ID              string `form:"id"`
	Title           string `form:"title"`
	Slug            string `form:"slug"`
	SlugTouched     bool   `form:"slug_touched"`
	Content         string `form:"content"`
	Excerpt         string `form:"excerpt"`
	Author          string `form:"author"`
	Tags            string `form:"tags"`
	Status          string `form:"status"`
	FeaturedImage   string `form:"featured_image"`
	MetaDescription string `form:"meta_description"`
	MetaKeywords    string `form:"meta_keywords"`
}

// PostFormFrom fills the editor from an existing post.
func PostFormFrom(p BlogPost) PostForm {
	return PostForm{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		SlugTouched:     true,
		Content:         p.Content,
		Excerpt:         p.Excerpt,
		Author:          p.Author,
		Tags:            strings.Join(p.Tags, ", "),
		Status:          string(p.Status),
		FeaturedImage:   p.FeaturedImage,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    p.MetaKeywords,
	}
}

// Editing reports whether the form edits an existing post.
func (f PostForm) Editing() bool {
	return f.ID != ""
}

// ResolveSlug derives the slug from the title for new posts unless the
// author typed one. A slug that differs from the derived one counts as
// typed even when slug_touched was never set by the editor script.
// Existing posts keep whatever slug the form carries.
func (f *PostForm) ResolveSlug() {
	f.Slug = strings.TrimSpace(f.Slug)
	if f.Editing() {
		return
	}
	derived := Slugify(f.Title)
	if f.Slug != "" && f.Slug != derived {
		f.SlugTouched = true
	}
	if f.Slug == "" || !f.SlugTouched {
		f.Slug = derived
	}
}

// Validate checks the fields the store requires.
func (f PostForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.Add("title", "Title is required.")
	}
	if f.Slug == "" {
		errs.Add("slug", "Slug is required. Add a title or slug.")
	}
	if strings.TrimSpace(f.Content) == "" {
		errs.Add("content", "Content is required.")
	}
	if f.Status != "" && !PostStatus(f.Status).Valid() {
		errs.Add("status", "Choose draft or published.")
	}
	return errs
}

// Post maps the form onto a BlogPost.
func (f PostForm) Post() BlogPost {
	status := PostStatus(f.Status)
	if status == "" {
		status = PostDraft
	}
	return BlogPost{
		ID:              f.ID,
		Title:           strings.TrimSpace(f.Title),
		Slug:            f.Slug,
		Content:         f.Content,
		Excerpt:         strings.TrimSpace(f.Excerpt),
		Author:          strings.TrimSpace(f.Author),
		Tags:            ParseTags(f.Tags),
		Status:          status,
		FeaturedImage:   f.FeaturedImage,
		MetaDescription: strings.TrimSpace(f.MetaDescription),
		MetaKeywords:    strings.TrimSpace(f.MetaKeywords),
	}
}

// AuthForm backs the sign-in and sign-up forms.
type AuthForm struct {
	Mode     string `form:"mode"`
	Email    string `form:"email"`
	Password string `form:"password"`
	FullName string `form:"full_name"`
}

// SignUp reports whether the form is in sign-up mode.
func (f AuthForm) SignUp() bool {
	return f.Mode == "signup"
}
