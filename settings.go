package brctc

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// SettingField describes one editable site setting.
type SettingField struct {
	Key       string
	Label     string
	Multiline bool
}

// SettingGroup is a titled section of the settings form.
type SettingGroup struct {
	Title  string
	Fields []SettingField
}

// SettingGroups lists every editable setting in form order.
var SettingGroups = []SettingGroup{
	{Title: "Home page", Fields: []SettingField{
		{Key: "site_title", Label: "Site title"},
		{Key: "hero_title", Label: "Hero title"},
		{Key: "hero_subtitle", Label: "Hero subtitle", Multiline: true},
		{Key: "vision_statement", Label: "Vision statement", Multiline: true},
		{Key: "mission_statement", Label: "Mission statement", Multiline: true},
	}},
	{Title: "About page", Fields: []SettingField{
		{Key: "about_page_title", Label: "Page title"},
		{Key: "about_page_intro", Label: "Introduction", Multiline: true},
		{Key: "about_description", Label: "Description", Multiline: true},
		{Key: "team_section_title", Label: "Team section title"},
		{Key: "team_description", Label: "Team description", Multiline: true},
	}},
	{Title: "Services page", Fields: []SettingField{
		{Key: "services_page_title", Label: "Page title"},
		{Key: "services_page_subtitle", Label: "Subtitle", Multiline: true},
		{Key: "individual_therapy_description", Label: "Individual therapy", Multiline: true},
		{Key: "group_therapy_description", Label: "Group therapy", Multiline: true},
		{Key: "family_therapy_description", Label: "Family therapy", Multiline: true},
	}},
	{Title: "Training page", Fields: []SettingField{
		{Key: "training_page_title", Label: "Page title"},
		{Key: "training_page_subtitle", Label: "Subtitle", Multiline: true},
		{Key: "counseling_certification_description", Label: "Counseling certification", Multiline: true},
		{Key: "clinical_supervision_description", Label: "Clinical supervision", Multiline: true},
		{Key: "research_methods_description", Label: "Research methods", Multiline: true},
	}},
	{Title: "Contact details", Fields: []SettingField{
		{Key: "contact_phone", Label: "Phone"},
		{Key: "contact_email", Label: "Email"},
		{Key: "contact_address", Label: "Address"},
		{Key: "office_hours", Label: "Office hours"},
		{Key: "emergency_contact", Label: "Emergency line"},
		{Key: "registration_number", Label: "Registration number"},
	}},
	{Title: "Footer and social", Fields: []SettingField{
		{Key: "footer_text", Label: "Footer text", Multiline: true},
		{Key: "facebook_url", Label: "Facebook URL"},
		{Key: "twitter_url", Label: "Twitter URL"},
		{Key: "instagram_url", Label: "Instagram URL"},
		{Key: "linkedin_url", Label: "LinkedIn URL"},
	}},
}

// SettingKeys returns every editable key in form order.
func SettingKeys() []string {
	var keys []string
	for _, g := range SettingGroups {
		for _, f := range g.Fields {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// SettingDefaults is the copy shown while a setting has never been saved.
var SettingDefaults = Settings{
	"site_title":             "BRCTC Counseling & Training Centre",
	"hero_title":             "Professional Counseling & Training Excellence",
	"hero_subtitle":          "Comprehensive mental health services and accredited training programs for individuals, families, and communities in Kenya",
	"vision_statement":       "To be a leading center of excellence in mental health, counseling and professional training, empowering individuals and communities towards holistic well-being and resilience.",
	"mission_statement":      "To provide high-quality, accessible, and professional counseling services while equipping individuals with the necessary skills and knowledge to become competent mental health professionals.",
	"about_page_title":       "About Us",
	"about_page_intro":       "A counseling and training centre committed to accessible, professional mental health care.",
	"team_section_title":     "Our Team",
	"services_page_title":    "Our Services",
	"services_page_subtitle": "Professional counseling for individuals, couples, families and organisations.",
	"individual_therapy_description": "One-on-one counseling sessions tailored to your specific needs.",
	"group_therapy_description":      "Supportive group sessions for shared experiences and healing.",
	"family_therapy_description":     "Strengthen relationships and resolve family conflicts.",
	"training_page_title":            "Training Programs",
	"training_page_subtitle":         "Accredited certificate, diploma and short courses for aspiring mental health professionals.",
	"counseling_certification_description": "Foundation course covering basic counseling skills and theories.",
	"clinical_supervision_description":     "Structured supervision for practising counselors.",
	"research_methods_description":         "Research skills for evidence-based counseling practice.",
	"contact_phone":   "+254 721 683232",
	"contact_email":   "info@brctc.co.ke",
	"contact_address": "Utawala, Nairobi County, Kenya",
	"office_hours":    "Monday - Friday: 8:00 AM - 6:00 PM",
}

// Setting returns key from s, falling back to SettingDefaults.
func (s Settings) Setting(key string) string {
	return s.Get(key, SettingDefaults[key])
}

// SettingsUpserter persists one setting.
type SettingsUpserter interface {
	UpsertSetting(ctx context.Context, key, value string) error
}

// SettingsEditor tracks unsaved edits against the last saved snapshot.
type SettingsEditor struct {
	saved Settings
	local Settings
}

// NewSettingsEditor starts editing from saved.
func NewSettingsEditor(saved Settings) *SettingsEditor {
	if saved == nil {
		saved = Settings{}
	}
	saved = saved.Clone()
	return &SettingsEditor{saved: saved, local: saved.Clone()}
}

// Value returns the local (possibly unsaved) value of key.
func (e *SettingsEditor) Value(key string) string {
	return e.local[key]
}

// Saved returns a copy of the last saved snapshot.
func (e *SettingsEditor) Saved() Settings {
	return e.saved.Clone()
}

// Local returns a copy of the working values.
func (e *SettingsEditor) Local() Settings {
	return e.local.Clone()
}

// Set changes a local value.
func (e *SettingsEditor) Set(key, value string) {
	e.local[key] = value
}

// ApplyForm copies every known setting present in form into the local
// values. Keys absent from the form are left alone.
func (e *SettingsEditor) ApplyForm(form url.Values) {
	for _, key := range SettingKeys() {
		if vals, ok := form[key]; ok && len(vals) > 0 {
			e.Set(key, vals[0])
		}
	}
}

// Reset discards local edits.
func (e *SettingsEditor) Reset() {
	e.local = e.saved.Clone()
}

// Changed returns the sorted keys whose local value differs from the saved
// one. A key that was never saved reads as "".
func (e *SettingsEditor) Changed() []string {
	var keys []string
	for k, v := range e.local {
		if e.saved[k] != v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Save upserts each changed key in order and stops at the first failure.
// Keys written before the failure stay written and are folded into the
// saved snapshot. After a full save the snapshot equals the local values.
func (e *SettingsEditor) Save(ctx context.Context, u SettingsUpserter) error {
	for _, key := range e.Changed() {
		value := e.local[key]
		if err := u.UpsertSetting(ctx, key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
		e.saved[key] = value
	}
	return nil
}
