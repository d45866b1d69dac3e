package brctc

import (
	"time"
)

// BookingStatus is the lifecycle state of a booking request.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingStatuses lists every booking status in display order.
var BookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	for _, v := range BookingStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// MessageStatus is the triage state of a contact message.
type MessageStatus string

const (
	MessageUnread   MessageStatus = "unread"
	MessageRead     MessageStatus = "read"
	MessageReplied  MessageStatus = "replied"
	MessageArchived MessageStatus = "archived"
)

var MessageStatuses = []MessageStatus{MessageUnread, MessageRead, MessageReplied, MessageArchived}

func (s MessageStatus) Valid() bool {
	for _, v := range MessageStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Urgency is the sender-chosen priority of a contact message.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}

func (u Urgency) Valid() bool {
	for _, v := range Urgencies {
		if u == v {
			return true
		}
	}
	return false
}

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

func (s PostStatus) Valid() bool {
	return s == PostDraft || s == PostPublished
}

// Role is an authorization role held by a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Booking is a counseling or training booking request.
type Booking struct {
	ID                        string
	Name                      string
	Email                     string
	Phone                     string
	Age                       *int
	Gender                    string
	Occupation                string
	ServiceType               string
	PreferredDate             string
	PreferredTime             string
	SessionType               string
	PreferredCounselorGender  string
	EmergencyContactName      string
	EmergencyContactPhone     string
	MedicalHistory            string
	PreviousTherapyExperience bool
	ReferralSource            string
	InsuranceProvider         string
	PaymentMethod             string
	Message                   string
	ConsentToTreatment        bool
	ConsentToCommunication    bool
	Status                    BookingStatus
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	Subject          string
	ServiceType      string
	PreferredContact string
	Message          string
	Status           MessageStatus
	Urgency          Urgency
	FollowUpRequired bool
	ResponseSentAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BlogPost is an article managed from the back office.
type BlogPost struct {
	ID              string
	Title           string
	Slug            string
	Content         string
	Excerpt         string
	Author          string
	Tags            []string
	Status          PostStatus
	FeaturedImage   string
	MetaDescription string
	MetaKeywords    string
	PublishedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Link returns the public path of the post.
func (p BlogPost) Link() string {
	return "/blog/" + p.Slug
}

// Published reports whether the post is visible to the public.
func (p BlogPost) Published() bool {
	return p.Status == PostPublished
}

// ChatMessage is one line of the client/staff chat.
type ChatMessage struct {
	ID          string
	SenderID    string
	RecipientID string
	Message     string
	IsFromAdmin bool
	ReadAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChatEntry is a chat message joined with its sender's profile.
type ChatEntry struct {
	ChatMessage
	SenderName  string
	SenderEmail string
}

// User is an account of the auth provider.
type User struct {
	ID        string
	Email     string
	FullName  string
	CreatedAt time.Time
}

// Settings maps setting keys to their values.
type Settings map[string]string

// Get returns the value for key, or fallback when unset or blank.
func (s Settings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Clone returns a shallow copy.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Toast is a one-shot notice shown on the next rendered page.
type Toast struct {
	Kind    string // "success" or "error"
	Message string
}

// Viewer is the signed-in user as seen by a request, or the zero value.
type Viewer struct {
	User    *User
	IsAdmin bool
}

// SignedIn reports whether the request carries a valid session.
func (v Viewer) SignedIn() bool {
	return v.User != nil
}

// Page is the data shared by every rendered page.
type Page struct {
	Site     SiteInfo
	Settings Settings
	Viewer   Viewer
	CSRF     string
	Path     string
	Toasts   []Toast
	Meta     PageMeta
}

// SiteInfo is the public subset of SiteConfig handed to templates.
type SiteInfo struct {
	Name        string
	URL         string
	Description string
}
