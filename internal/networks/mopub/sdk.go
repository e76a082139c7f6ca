package mopub

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/consent"
)

// ErrorCode is a MoPub error code
type ErrorCode string

func (c ErrorCode) Error() string { return string(c) }

// LocationAwareness controls how much location MoPub may collect
type LocationAwareness int

const (
	LocationDisabled LocationAwareness = iota
	LocationNormal
)

// Reward is granted when a rewarded video completes
type Reward struct {
	Label  string
	Amount int
}

// PersonalInfoManager is MoPub's consent dialog manager
type PersonalInfoManager = consent.Prompter

// BannerAdListener receives banner view callbacks
type BannerAdListener interface {
	OnBannerLoaded(banner View)
	OnBannerFailed(banner View, code ErrorCode)
	OnBannerClicked(banner View)
	OnBannerExpanded(banner View)
	OnBannerCollapsed(banner View)
}

// View is a MoPub banner view
type View interface {
	SetAutorefreshEnabled(enabled bool)
	LoadAd()
	Destroy()
}

// InterstitialAdListener receives interstitial callbacks
type InterstitialAdListener interface {
	OnInterstitialLoaded(ad Interstitial)
	OnInterstitialFailed(ad Interstitial, code ErrorCode)
	OnInterstitialShown(ad Interstitial)
	OnInterstitialClicked(ad Interstitial)
	OnInterstitialDismissed(ad Interstitial)
}

// Interstitial is a MoPub interstitial bound to the activity it was created with
type Interstitial interface {
	Load()
	IsReady() bool
	Show()
	Destroy()
}

// RewardedVideoListener receives rewarded video callbacks. MoPub keeps a
// single process-wide listener.
type RewardedVideoListener interface {
	OnRewardedVideoLoadSuccess(adUnitID string)
	OnRewardedVideoLoadFailure(adUnitID string, code ErrorCode)
	OnRewardedVideoStarted(adUnitID string)
	OnRewardedVideoPlaybackError(adUnitID string, code ErrorCode)
	OnRewardedVideoClicked(adUnitID string)
	OnRewardedVideoClosed(adUnitID string)
	OnRewardedVideoCompleted(adUnitIDs []string, reward Reward)
}

// SDK is the MoPub SDK surface used by the adapters
type SDK interface {
	// InitializeSDK starts MoPub with any of the app's ad unit ids and calls
	// onInitialized once done, possibly on another goroutine.
	InitializeSDK(ctx mediation.Context, adUnitID string, onInitialized func())
	SetLocationAwareness(awareness LocationAwareness)
	// PersonalInformationManager returns nil before initialization
	PersonalInformationManager() PersonalInfoManager

	NewView(ctx mediation.Context, adUnitID string, width, height int, listener BannerAdListener) View
	NewInterstitial(activity *mediation.Activity, adUnitID string, listener InterstitialAdListener) Interstitial

	SetRewardedVideoListener(listener RewardedVideoListener)
	LoadRewardedVideo(adUnitID string)
	HasRewardedVideo(adUnitID string) bool
	ShowRewardedVideo(adUnitID string)
}
