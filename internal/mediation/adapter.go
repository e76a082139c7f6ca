package mediation

import "strconv"

// Format is an ad format role
type Format string

const (
	FormatBanner        Format = "banner"
	FormatInterstitial  Format = "interstitial"
	FormatRewardedVideo Format = "rewarded_video"
)

// Client parameter keys understood by the adapters
const (
	AdViewWidthKey  = "adViewWidth"
	AdViewHeightKey = "adViewHeight"
	GDPRAppliesKey  = "gdprApplies"
)

// ClientParams carries host-side request parameters with opaque values.
type ClientParams map[string]any

// String returns the value of key when it is a string, "" otherwise
func (p ClientParams) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Int parses a string-encoded integer, defaulting to 0 when absent or invalid
func (p ClientParams) Int(key string) int {
	n, err := strconv.Atoi(p.String(key))
	if err != nil {
		return 0
	}
	return n
}

// Adapter is the part of the contract shared by every format
type Adapter interface {
	// Destroy releases native resources of the current ad instance. It is
	// safe to call repeatedly and without a loaded instance.
	Destroy()
}

// BannerAdapter requests banner ads. The rendered view is handed back through
// Listener.OnLoaded.
type BannerAdapter interface {
	Adapter
	RequestBannerAd(ctx Context, config string, params ClientParams, listener Listener)
}

// InterstitialAdapter requests and displays interstitial ads
type InterstitialAdapter interface {
	Adapter
	RequestInterstitialAd(ctx Context, config string, params ClientParams, listener Listener)
	// ShowInterstitial displays the loaded ad on the main thread. It returns
	// ErrNotLoaded or ErrActivityGone when display is impossible.
	ShowInterstitial() error
}

// RewardedVideoAdapter requests and displays rewarded video ads
type RewardedVideoAdapter interface {
	Adapter
	RequestRewardedVideoAd(ctx Context, config string, params ClientParams, listener Listener)
	ShowRewardedVideoAd() error
}
