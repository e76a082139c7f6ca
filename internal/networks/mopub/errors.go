package mopub

import "github.com/thenexusengine/tne_mediation/internal/mediation"

// Error codes
const (
	ErrorCodeAdapterNotFound           ErrorCode = "ADAPTER_NOT_FOUND"
	ErrorCodeAdapterConfigurationError ErrorCode = "ADAPTER_CONFIGURATION_ERROR"
	ErrorCodeNoFill                    ErrorCode = "NO_FILL"
	ErrorCodeNetworkNoFill             ErrorCode = "NETWORK_NO_FILL"
	ErrorCodeWarmup                    ErrorCode = "WARMUP"
	ErrorCodeServerError               ErrorCode = "SERVER_ERROR"
	ErrorCodeInternalError             ErrorCode = "INTERNAL_ERROR"
	ErrorCodeCancelled                 ErrorCode = "CANCELLED"
	ErrorCodeNoConnection              ErrorCode = "NO_CONNECTION"
	ErrorCodeNetworkTimeout            ErrorCode = "NETWORK_TIMEOUT"
	ErrorCodeNetworkInvalidState       ErrorCode = "NETWORK_INVALID_STATE"
	ErrorCodeVideoCacheError           ErrorCode = "VIDEO_CACHE_ERROR"
	ErrorCodeVideoDownloadError        ErrorCode = "VIDEO_DOWNLOAD_ERROR"
	ErrorCodeVideoPlaybackError        ErrorCode = "VIDEO_PLAYBACK_ERROR"
	ErrorCodeExpired                   ErrorCode = "EXPIRED"
	ErrorCodeUnspecified               ErrorCode = "UNSPECIFIED"
)

var classifier = mediation.NewClassifier(networkName, map[ErrorCode]mediation.Code{
	ErrorCodeAdapterNotFound:           {Name: "unable to find native network or custom event adapter"},
	ErrorCodeAdapterConfigurationError: {Name: "native network or custom event adapter was configured incorrectly"},
	ErrorCodeNoFill:                    {Name: "no ads found", NoFill: true},
	ErrorCodeNetworkNoFill:             {Name: "third-party network failed to provide an ad", NoFill: true},
	ErrorCodeWarmup:                    {Name: "ad unit is warming up"},
	ErrorCodeServerError:               {Name: "unable to connect to MoPub adserver"},
	ErrorCodeInternalError:             {Name: "unable to serve ad due to invalid internal state"},
	ErrorCodeCancelled:                 {Name: "ad request was cancelled"},
	ErrorCodeNoConnection:              {Name: "no internet connection detected"},
	ErrorCodeNetworkTimeout:            {Name: "third-party network failed to respond in a timely manner"},
	ErrorCodeNetworkInvalidState:       {Name: "third-party network failed due to invalid internal state"},
	ErrorCodeVideoCacheError:           {Name: "error creating a cache to store downloaded videos"},
	ErrorCodeVideoDownloadError:        {Name: "error downloading video"},
	ErrorCodeVideoPlaybackError:        {Name: "error playing a video"},
	ErrorCodeExpired:                   {Name: "ad expired since it was not shown within the allowed time"},
	ErrorCodeUnspecified:               {Name: "unspecified error"},
})

// Classify reports whether an error code means no fill
func Classify(code ErrorCode) (bool, string) {
	return classifier.Classify(code)
}

func loadFailed(code ErrorCode) mediation.Event {
	noFill, msg := classifier.Classify(code)
	return mediation.LoadFailed(msg, noFill)
}
