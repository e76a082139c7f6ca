package google

import "github.com/thenexusengine/tne_mediation/internal/mediation"

// Load error codes
const (
	ErrorCodeInternalError     = 0
	ErrorCodeInvalidRequest    = 1
	ErrorCodeNetworkError      = 2
	ErrorCodeNoFill            = 3
	ErrorCodeAppIDMissing      = 8
	ErrorCodeMediationNoFill   = 9
	ErrorCodeRequestIDMismatch = 10
	ErrorCodeInvalidAdString   = 11
)

// Only NO_FILL is a no-fill. MEDIATION_NO_FILL reports a failure inside
// Google's own mediation chain and is a generic failure.
var classifier = mediation.NewClassifier(networkName, map[int]mediation.Code{
	ErrorCodeInternalError:     {Name: "INTERNAL_ERROR"},
	ErrorCodeInvalidRequest:    {Name: "INVALID_REQUEST"},
	ErrorCodeNetworkError:      {Name: "NETWORK_ERROR"},
	ErrorCodeNoFill:            {Name: "NO_FILL", NoFill: true},
	ErrorCodeAppIDMissing:      {Name: "APP_ID_MISSING"},
	ErrorCodeMediationNoFill:   {Name: "MEDIATION_NO_FILL"},
	ErrorCodeRequestIDMismatch: {Name: "REQUEST_ID_MISMATCH"},
	ErrorCodeInvalidAdString:   {Name: "INVALID_AD_STRING"},
})

// Classify reports whether a load error code means no fill
func Classify(code int) (bool, string) {
	return classifier.Classify(code)
}

func loadFailed(format mediation.Format, err LoadAdError) mediation.Event {
	noFill, reason := classifier.Classify(err.Code)
	return mediation.LoadFailed("Google mobile ads "+string(format)+" loading error: "+reason+": "+err.Message, noFill)
}
