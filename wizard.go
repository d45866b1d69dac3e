package brctc

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Booking wizard steps.
const (
	StepPersonal = iota + 1
	StepService
	StepBackground
	StepConsent
)

// WizardSteps is the number of steps in the booking wizard.
const WizardSteps = StepConsent

// StepTitles are shown in the wizard's progress bar.
var StepTitles = []string{"Personal details", "Service", "Background", "Consent"}

// PersonalDetails is step 1 of the booking wizard.
type PersonalDetails struct {
	Name       string `form:"name"`
	Email      string `form:"email"`
	Phone      string `form:"phone"`
	Age        string `form:"age"`
	Gender     string `form:"gender"`
	Occupation string `form:"occupation"`
}

// ServiceDetails is step 2.
type ServiceDetails struct {
	ServiceType              string `form:"service_type"`
	PreferredDate            string `form:"preferred_date"`
	PreferredTime            string `form:"preferred_time"`
	SessionType              string `form:"session_type"`
	PreferredCounselorGender string `form:"preferred_counselor_gender"`
}

// BackgroundDetails is step 3.
type BackgroundDetails struct {
	EmergencyContactName      string `form:"emergency_contact_name"`
	EmergencyContactPhone     string `form:"emergency_contact_phone"`
	MedicalHistory            string `form:"medical_history"`
	PreviousTherapyExperience bool   `form:"previous_therapy_experience"`
	ReferralSource            string `form:"referral_source"`
	InsuranceProvider         string `form:"insurance_provider"`
	PaymentMethod             string `form:"payment_method"`
}

// ConsentDetails is step 4.
type ConsentDetails struct {
	Message                string `form:"message"`
	ConsentToTreatment     bool   `form:"consent_to_treatment"`
	ConsentToCommunication bool   `form:"consent_to_communication"`
}

// BookingWizard is the full state of an in-progress booking. The page
// round-trips every field, so the state lives in the form itself.
type BookingWizard struct {
	Step       int `form:"step"`
	Personal   PersonalDetails
	Service    ServiceDetails
	Background BackgroundDetails
	Consent    ConsentDetails
}

// NewBookingWizard returns an empty wizard on step 1.
func NewBookingWizard() BookingWizard {
	w := BookingWizard{}
	w.Reset()
	return w
}

// Reset clears every field and returns to step 1.
func (w *BookingWizard) Reset() {
	*w = BookingWizard{Step: StepPersonal}
	w.Service.SessionType = "in-person"
}

// Normalize clamps the step and fills defaults. Call it after binding
// untrusted input.
func (w *BookingWizard) Normalize() {
	w.Step = clampStep(w.Step)
	if w.Service.SessionType == "" {
		w.Service.SessionType = "in-person"
	}
}

func clampStep(step int) int {
	if step < StepPersonal {
		return StepPersonal
	}
	if step > WizardSteps {
		return WizardSteps
	}
	return step
}

// IsFirst reports whether the wizard is on step 1.
func (w BookingWizard) IsFirst() bool { return w.Step <= StepPersonal }

// IsLast reports whether the wizard is on the consent step.
func (w BookingWizard) IsLast() bool { return w.Step >= WizardSteps }

// Progress returns the completion percentage for the progress bar.
func (w BookingWizard) Progress() int {
	return clampStep(w.Step) * 100 / WizardSteps
}

// Next validates the current step and advances when it is valid. The
// returned errors are empty on success.
func (w *BookingWizard) Next() FieldErrors {
	w.Step = clampStep(w.Step)
	errs := w.validateStep(w.Step)
	if errs.Empty() {
		w.Step = clampStep(w.Step + 1)
	}
	return errs
}

// Previous goes back one step without validating.
func (w *BookingWizard) Previous() {
	w.Step = clampStep(w.Step - 1)
}

// Validate checks every step and moves the wizard to the first step with
// errors.
func (w *BookingWizard) Validate() FieldErrors {
	for step := StepPersonal; step <= WizardSteps; step++ {
		if errs := w.validateStep(step); !errs.Empty() {
			w.Step = step
			return errs
		}
	}
	return FieldErrors{}
}

func (w BookingWizard) validateStep(step int) FieldErrors {
	errs := FieldErrors{}
	switch step {
	case StepPersonal:
		p := w.Personal
		if strings.TrimSpace(p.Name) == "" {
			errs.Add("name", "Please enter your full name.")
		}
		if strings.TrimSpace(p.Email) == "" {
			errs.Add("email", "Please enter your email address.")
		} else if !strings.Contains(p.Email, "@") {
			errs.Add("email", "Please enter a valid email address.")
		}
		if strings.TrimSpace(p.Age) != "" {
			if _, err := parseAge(p.Age); err != nil {
				errs.Add("age", "Age must be a number between 1 and 120.")
			}
		}
	case StepService:
		s := w.Service
		if s.ServiceType == "" {
			errs.Add("service_type", "Please choose a service.")
		}
		if s.PreferredDate != "" {
			if _, err := time.Parse("2006-01-02", s.PreferredDate); err != nil {
				errs.Add("preferred_date", "Please choose a valid date.")
			}
		}
	}
	return errs
}

func parseAge(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if age < 1 || age > 120 {
		return 0, strconv.ErrRange
	}
	return age, nil
}

// Booking maps the wizard onto a new pending booking row.
func (w BookingWizard) Booking() Booking {
	b := Booking{
		Name:                      strings.TrimSpace(w.Personal.Name),
		Email:                     strings.TrimSpace(w.Personal.Email),
		Phone:                     strings.TrimSpace(w.Personal.Phone),
		Gender:                    w.Personal.Gender,
		Occupation:                strings.TrimSpace(w.Personal.Occupation),
		ServiceType:               w.Service.ServiceType,
		PreferredDate:             w.Service.PreferredDate,
		PreferredTime:             w.Service.PreferredTime,
		SessionType:               w.Service.SessionType,
		PreferredCounselorGender:  w.Service.PreferredCounselorGender,
		EmergencyContactName:      strings.TrimSpace(w.Background.EmergencyContactName),
		EmergencyContactPhone:     strings.TrimSpace(w.Background.EmergencyContactPhone),
		MedicalHistory:            strings.TrimSpace(w.Background.MedicalHistory),
		PreviousTherapyExperience: w.Background.PreviousTherapyExperience,
		ReferralSource:            w.Background.ReferralSource,
		InsuranceProvider:         strings.TrimSpace(w.Background.InsuranceProvider),
		PaymentMethod:             w.Background.PaymentMethod,
		Message:                   strings.TrimSpace(w.Consent.Message),
		ConsentToTreatment:        w.Consent.ConsentToTreatment,
		ConsentToCommunication:    w.Consent.ConsentToCommunication,
		Status:                    BookingPending,
	}
	if age, err := parseAge(w.Personal.Age); err == nil {
		b.Age = &age
	}
	return b
}

// BookingCreator persists a booking.
type BookingCreator interface {
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
}

// SubmitBooking stores the wizard as a booking. Without consent to
// treatment nothing is written and ErrConsentRequired is returned. On
// success the wizard is reset; on any failure it is left as it was (apart
// from moving to a step with field errors).
func SubmitBooking(ctx context.Context, store BookingCreator, w *BookingWizard) (Booking, error) {
	if !w.Consent.ConsentToTreatment {
		return Booking{}, ErrConsentRequired
	}
	if errs := w.Validate(); !errs.Empty() {
		return Booking{}, errs
	}
	b, err := store.CreateBooking(ctx, w.Booking())
	if err != nil {
		return Booking{}, err
	}
	w.Reset()
	return b, nil
}
