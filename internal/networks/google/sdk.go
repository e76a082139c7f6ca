package google

import (
	"fmt"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
)

// AdSize is a Google banner size
type AdSize struct {
	Name   string
	Width  int
	Height int
}

var (
	Banner          = AdSize{Name: "BANNER", Width: 320, Height: 50}
	LargeBanner     = AdSize{Name: "LARGE_BANNER", Width: 320, Height: 100}
	MediumRectangle = AdSize{Name: "MEDIUM_RECTANGLE", Width: 300, Height: 250}
	Leaderboard     = AdSize{Name: "LEADERBOARD", Width: 728, Height: 90}
)

// AdRequest is the targeting of one ad request
type AdRequest struct {
	// AdManager builds an Ad Manager request instead of an AdMob one
	AdManager bool
	// NonPersonalized sets the npa extra
	NonPersonalized bool
}

// LoadAdError is reported when an ad request fails
type LoadAdError struct {
	Code    int
	Message string
	Domain  string
}

func (e LoadAdError) String() string {
	return fmt.Sprintf("code: %d, message: %s, domain: %s", e.Code, e.Message, e.Domain)
}

// AdError is reported when fullscreen content cannot be shown
type AdError struct {
	Code    int
	Message string
}

// RewardItem is granted by a rewarded ad
type RewardItem struct {
	Type   string
	Amount int
}

// AdListener receives banner view callbacks
type AdListener interface {
	OnAdLoaded()
	OnAdFailedToLoad(err LoadAdError)
	OnAdOpened()
	OnAdClicked()
	OnAdImpression()
	OnAdClosed()
}

// AdView is an AdMob or Ad Manager banner view
type AdView interface {
	LoadAd(req AdRequest)
	Destroy()
}

// FullScreenContentCallback receives fullscreen display callbacks
type FullScreenContentCallback interface {
	OnAdShowedFullScreenContent()
	OnAdFailedToShowFullScreenContent(err AdError)
	OnAdDismissedFullScreenContent()
	OnAdImpression()
	OnAdClicked()
}

// InterstitialAd is a loaded interstitial
type InterstitialAd interface {
	SetFullScreenContentCallback(cb FullScreenContentCallback)
	Show(activity *mediation.Activity)
}

// RewardedAd is a loaded rewarded ad
type RewardedAd interface {
	SetFullScreenContentCallback(cb FullScreenContentCallback)
	Show(activity *mediation.Activity, onReward func(item RewardItem))
}

// InterstitialAdLoadCallback receives the interstitial load outcome
type InterstitialAdLoadCallback interface {
	OnAdLoaded(ad InterstitialAd)
	OnAdFailedToLoad(err LoadAdError)
}

// RewardedAdLoadCallback receives the rewarded load outcome
type RewardedAdLoadCallback interface {
	OnAdLoaded(ad RewardedAd)
	OnAdFailedToLoad(err LoadAdError)
}

// SDK is the Google Mobile Ads SDK surface used by the adapters
type SDK interface {
	// Initialize starts the AdMob SDK. Ad Manager needs no initialization.
	Initialize(ctx mediation.Context, onComplete func(status string))
	NewAdView(ctx mediation.Context, adUnitID string, size AdSize, adManager bool, listener AdListener) AdView
	LoadInterstitial(ctx mediation.Context, adUnitID string, req AdRequest, cb InterstitialAdLoadCallback)
	LoadRewarded(ctx mediation.Context, adUnitID string, req AdRequest, cb RewardedAdLoadCallback)
}
