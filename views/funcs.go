package views

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/brctc/brctc"
	"github.com/brctc/brctc/markdown"
)

var funcMap = template.FuncMap{
	"setting":     func(s brctc.Settings, key string) string { return s.Setting(key) },
	"markdown":    markdown.HTML,
	"date":        brctc.FormatDate,
	"datetime":    formatDateTime,
	"day":         func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"readingTime": brctc.ReadingTime,
	"excerpt":     brctc.Excerpt,
	"jsonLD":      func(s string) template.JS { return template.JS(s) },
	"orgJsonLD": func(site brctc.SiteInfo, s brctc.Settings) template.JS {
		return template.JS(brctc.OrganizationJsonLD(siteConfig(site), s))
	},
	"postJsonLD": func(site brctc.SiteInfo, post brctc.BlogPost) template.JS {
		return template.JS(brctc.BlogPostingJsonLD(post, siteConfig(site)))
	},
	"pick": func(choices []brctc.Choice, current string) choiceSelect {
		return choiceSelect{Choices: choices, Current: current}
	},

	"serviceLabel":    brctc.ServiceLabel,
	"choiceLabel":     brctc.ChoiceLabel,
	"services":        func() []brctc.Choice { return brctc.ServiceChoices },
	"genders":         func() []brctc.Choice { return brctc.GenderChoices },
	"sessionTypes":    func() []brctc.Choice { return brctc.SessionTypeChoices },
	"counselorGender": func() []brctc.Choice { return brctc.CounselorGenderChoices },
	"referrals":       func() []brctc.Choice { return brctc.ReferralChoices },
	"payments":        func() []brctc.Choice { return brctc.PaymentChoices },
	"contactMethods":  func() []brctc.Choice { return brctc.PreferredContactChoices },
	"timeSlots":       func() []string { return brctc.TimeSlots },
	"bookingStatuses": func() []brctc.BookingStatus { return brctc.BookingStatuses },
	"messageStatuses": func() []brctc.MessageStatus { return brctc.MessageStatuses },
	"urgencies":       func() []brctc.Urgency { return brctc.Urgencies },
	"settingGroups":   func() []brctc.SettingGroup { return brctc.SettingGroups },
	"stepTitles":      func() []string { return brctc.StepTitles },

	"fieldError": func(errs brctc.FieldErrors, field string) string { return errs.Get(field) },
	"query":      encodeQuery,
	"withQuery":  withQuery,
	"capitalize": capitalize,
	"age":        formatAge,
	"percent":    percent,
	"add":        func(a, b int) int { return a + b },
	"join":       strings.Join,
	"navActive":  navActive,
}

func siteConfig(site brctc.SiteInfo) brctc.SiteConfig {
	return brctc.SiteConfig{Name: site.Name, URL: site.URL, Description: site.Description}
}

// choiceSelect feeds the "choice-options" partial.
type choiceSelect struct {
	Choices []brctc.Choice
	Current string
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func encodeQuery(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// withQuery appends the encoded filter to path.
func withQuery(path string, v url.Values) string {
	return path + encodeQuery(v)
}

// capitalize accepts any string kind so status enums can be passed as is.
func capitalize(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatAge(age *int) int {
	if age == nil {
		return 0
	}
	return *age
}

// percent returns n as a share of total, for bar widths.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return n * 100 / total
}

// navActive marks a nav link as current. "/" only matches the home page;
// other links also match their sub-pages.
func navActive(current, link string) string {
	if current == link || (link != "/" && link != "/admin" && strings.HasPrefix(current, link+"/")) {
		return "active"
	}
	return ""
}
