package consent

import (
	"fmt"

	"github.com/prebid/go-gdpr/vendorconsent"
)

// ErrorMalformedTCF is returned for a consent string that is not valid TCF v2
type ErrorMalformedTCF struct {
	Consent string
	Cause   error
}

func (e *ErrorMalformedTCF) Error() string {
	return fmt.Sprintf("malformed TCF consent string %q: %v", e.Consent, e.Cause)
}

func (e *ErrorMalformedTCF) Unwrap() error {
	return e.Cause
}

// TCF is a validated TCF v2 consent string
type TCF struct {
	Raw               string
	PolicyVersion     uint8
	VendorListVersion uint16
}

// ParseTCF validates a TCF v2 consent string
func ParseTCF(consent string) (TCF, error) {
	parsed, err := vendorconsent.ParseString(consent)
	if err != nil {
		return TCF{}, &ErrorMalformedTCF{Consent: consent, Cause: err}
	}
	if v := parsed.Version(); v != 2 {
		return TCF{}, &ErrorMalformedTCF{
			Consent: consent,
			Cause:   fmt.Errorf("invalid encoding format version: %d", v),
		}
	}
	if p := parsed.TCFPolicyVersion(); p > 4 {
		return TCF{}, &ErrorMalformedTCF{
			Consent: consent,
			Cause:   fmt.Errorf("invalid TCF policy version: %d", p),
		}
	}
	return TCF{
		Raw:               consent,
		PolicyVersion:     parsed.TCFPolicyVersion(),
		VendorListVersion: parsed.VendorListVersion(),
	}, nil
}
