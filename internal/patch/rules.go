package patch

// DefaultCountry is the variations country written into the state file.
const DefaultCountry = "US"

var (
	// VariationsCountryPath locates the region code in the Local State file.
	VariationsCountryPath = []string{"variations_country"}

	// ChatEligibilityPath locates the Copilot eligibility flag in a profile's
	// Preferences file.
	ChatEligibilityPath = []string{"browser", "chat_ip_eligibility_status"}
)

// StateFileRule forces the variations country to country.
func StateFileRule(country string) Rule {
	return func(doc any) (any, bool) {
		return doc, SetStringField(doc, VariationsCountryPath, country)
	}
}

// PreferenceFileRule forces the chat eligibility flag to true, creating the
// browser object when it is absent.
func PreferenceFileRule() Rule {
	return func(doc any) (any, bool) {
		return doc, SetBoolField(doc, ChatEligibilityPath, true)
	}
}
