package ogury

import (
	"fmt"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
)

// Configuration starts the Ogury SDK for one asset key
type Configuration struct {
	AssetKey string
}

// Error is reported by Ogury ad listeners
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Ogury error %d: %s", e.Code, e.Message)
}

// Reward is granted by an opt-in video. Value is free text.
type Reward struct {
	Name  string
	Value string
}

// BannerAdSize is an Ogury banner size
type BannerAdSize struct {
	Name   string
	Width  int
	Height int
}

var (
	SmallBanner320x50 = BannerAdSize{Name: "SMALL_BANNER_320x50", Width: 320, Height: 50}
	MPU300x250        = BannerAdSize{Name: "MPU_300x250", Width: 300, Height: 250}
)

// AdListener receives the callbacks shared by every Ogury format. OnAdError
// reports both load and display failures.
type AdListener interface {
	OnAdLoaded()
	OnAdDisplayed()
	OnAdClicked()
	OnAdClosed()
	OnAdError(err *Error)
}

// OptinVideoAdListener also receives rewards
type OptinVideoAdListener interface {
	AdListener
	OnAdRewarded(reward *Reward)
}

// BannerAdView is an Ogury banner view
type BannerAdView interface {
	LoadAd()
	Destroy()
}

// FullscreenAd is an interstitial or opt-in video
type FullscreenAd interface {
	Load()
	IsLoaded() bool
	Show()
}

// ThumbnailAd is a small floating ad displayed over an activity
type ThumbnailAd interface {
	Load(maxWidth, maxHeight int)
	IsLoaded() bool
	Show(activity *mediation.Activity, leftMargin, topMargin int)
}

// SDK is the Ogury SDK surface used by the adapters
type SDK interface {
	Start(ctx mediation.Context, cfg Configuration)
	// SetTCFConsent forwards an IAB TCF v2 consent string to the Ogury
	// choice manager of assetKey
	SetTCFConsent(ctx mediation.Context, assetKey, tcf string)

	NewBannerAdView(ctx mediation.Context, adUnitID string, size BannerAdSize, listener AdListener) BannerAdView
	NewInterstitialAd(ctx mediation.Context, adUnitID string, listener AdListener) FullscreenAd
	NewOptinVideoAd(ctx mediation.Context, adUnitID string, listener OptinVideoAdListener) FullscreenAd
	NewThumbnailAd(ctx mediation.Context, adUnitID string, listener AdListener) ThumbnailAd
}
