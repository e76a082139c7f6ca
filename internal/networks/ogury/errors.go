package ogury

import "github.com/thenexusengine/tne_mediation/internal/mediation"

// Error codes
const (
	ErrorCodeNoInternetConnection      = 0
	ErrorCodeLoadFailed                = 2000
	ErrorCodeAdDisabled                = 2001
	ErrorCodeProfigNotSynced           = 2002
	ErrorCodeAdExpired                 = 2003
	ErrorCodeSDKInitNotCalled          = 2004
	ErrorCodeAnotherAdAlreadyDisplayed = 2005
	ErrorCodeSDKInitFailed             = 2006
	ErrorCodeActivityInBackground      = 2007
	ErrorCodeAdNotAvailable            = 2008
	ErrorCodeAdNotLoaded               = 2009
	ErrorCodeShowFailed                = 2010
)

var classifier = mediation.NewClassifier(networkName, map[int]mediation.Code{
	ErrorCodeNoInternetConnection:      {Name: "NO_INTERNET_CONNECTION"},
	ErrorCodeLoadFailed:                {Name: "LOAD_FAILED"},
	ErrorCodeAdDisabled:                {Name: "AD_DISABLED", NoFill: true},
	ErrorCodeProfigNotSynced:           {Name: "PROFIG_NOT_SYNCED"},
	ErrorCodeAdExpired:                 {Name: "AD_EXPIRED"},
	ErrorCodeSDKInitNotCalled:          {Name: "SDK_INIT_NOT_CALLED"},
	ErrorCodeAnotherAdAlreadyDisplayed: {Name: "ANOTHER_AD_ALREADY_DISPLAYED"},
	ErrorCodeSDKInitFailed:             {Name: "SDK_INIT_FAILED"},
	ErrorCodeActivityInBackground:      {Name: "ACTIVITY_IN_BACKGROUND"},
	ErrorCodeAdNotAvailable:            {Name: "AD_NOT_AVAILABLE", NoFill: true},
	ErrorCodeAdNotLoaded:               {Name: "AD_NOT_LOADED"},
	ErrorCodeShowFailed:                {Name: "SHOW_FAILED"},
})

// Classify reports whether an error code means no fill
func Classify(code int) (bool, string) {
	return classifier.Classify(code)
}
