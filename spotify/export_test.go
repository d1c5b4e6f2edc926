package spotify

// SetPartnerQueryURL points the partner endpoint at a test fixture and returns
// a restore func.
func SetPartnerQueryURL(u string) func() {
	prev := partnerQueryURL
	partnerQueryURL = u
	return func() { partnerQueryURL = prev }
}
