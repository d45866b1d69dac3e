package brctc

// Option values offered by the intake forms. Labels are what visitors see;
// values are what gets stored.

// Choice is one entry of a select or radio group.
type Choice struct {
	Value string
	Label string
}

var ServiceChoices = []Choice{
	{"individual", "Individual Counseling"},
	{"group", "Group Therapy"},
	{"family", "Family & Marriage Counseling"},
	{"workplace", "Workplace Counseling"},
	{"assessment", "Psychological Assessment"},
	{"training-certificate", "Certificate Training Program"},
	{"training-diploma", "Diploma Training Program"},
	{"short-course", "Short Course"},
	{"emergency", "Emergency Session"},
}

var GenderChoices = []Choice{
	{"male", "Male"},
	{"female", "Female"},
	{"non-binary", "Non-binary"},
	{"prefer-not-to-say", "Prefer not to say"},
}

var SessionTypeChoices = []Choice{
	{"in-person", "In-person"},
	{"online", "Online (video call)"},
	{"phone", "Phone call"},
}

var CounselorGenderChoices = []Choice{
	{"no-preference", "No preference"},
	{"male", "Male"},
	{"female", "Female"},
}

var ReferralChoices = []Choice{
	{"friend-family", "Friend or family"},
	{"doctor", "Doctor or health professional"},
	{"internet", "Internet search"},
	{"social-media", "Social media"},
	{"advertisement", "Advertisement"},
	{"other", "Other"},
}

var PaymentChoices = []Choice{
	{"cash", "Cash"},
	{"mpesa", "M-Pesa"},
	{"bank-transfer", "Bank transfer"},
	{"insurance", "Insurance"},
}

var PreferredContactChoices = []Choice{
	{"email", "Email"},
	{"phone", "Phone"},
	{"whatsapp", "WhatsApp"},
}

// TimeSlots are the bookable hours, 08:00 to 17:00.
var TimeSlots = []string{
	"08:00", "09:00", "10:00", "11:00", "12:00",
	"13:00", "14:00", "15:00", "16:00", "17:00",
}

// ChoiceLabel returns the label for value, or value itself when unknown.
func ChoiceLabel(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// ServiceLabel returns the display name of a service type.
func ServiceLabel(value string) string {
	return ChoiceLabel(ServiceChoices, value)
}
