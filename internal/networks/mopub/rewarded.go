package mopub

import (
	"slices"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// RewardedVideoAdapter serves MoPub rewarded videos
type RewardedVideoAdapter struct {
	base
}

// NewRewardedVideoAdapter creates a rewarded video adapter over sdk
func NewRewardedVideoAdapter(sdk SDK, opts ...Option) *RewardedVideoAdapter {
	return &RewardedVideoAdapter{base: newBase(sdk, mediation.FormatRewardedVideo, opts)}
}

// RequestRewardedVideoAd requests a rewarded video. ctx must be an activity.
// A pending consent dialog is shown once the video started.
func (a *RewardedVideoAdapter) RequestRewardedVideoAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	if _, ok := inst.RequireActivity(ctx, "Can not get a MoPub rewarded video because its creation context is not an Activity"); !ok {
		return
	}
	adUnitID := params.Decode(config).Key()

	if !a.ready(ctx, inst, adUnitID, func() { a.RequestRewardedVideoAd(ctx, config, clientParams, listener) }) {
		return
	}

	gate := a.consentGate()
	gate.Defer()
	inst.AfterShown(gate.OnShown)

	inst.Attach(adUnitID)
	a.sdk.SetRewardedVideoListener(&rewardedListener{inst: inst, adUnitID: adUnitID})

	inst.Logger().Debug().Str("ad_unit", adUnitID).Msg("requesting rewarded video")
	a.sdk.LoadRewardedVideo(adUnitID)
}

// ShowRewardedVideoAd displays the loaded rewarded video on the main thread
func (a *RewardedVideoAdapter) ShowRewardedVideoAd() error {
	return a.tracker.Show(a.thread, func(inst *mediation.Instance, _ *mediation.Activity) {
		adUnitID, _ := inst.Native().(string)
		if adUnitID == "" || !a.sdk.HasRewardedVideo(adUnitID) {
			inst.Emit(mediation.ShowFailed("MoPub rewarded video is not available"))
			return
		}
		a.sdk.ShowRewardedVideo(adUnitID)
	})
}

// rewardedListener is installed process-wide by the SDK, so callbacks for any
// other ad unit belong to an earlier request and are dropped.
type rewardedListener struct {
	inst     *mediation.Instance
	adUnitID string
}

func (l *rewardedListener) ours(callback, adUnitID string) bool {
	if adUnitID == l.adUnitID {
		return true
	}
	l.inst.Logger().Warn().
		Str("callback", callback).
		Str("ad_unit", adUnitID).
		Str("requested_ad_unit", l.adUnitID).
		Msg("dropping rewarded video callback for another ad unit")
	return false
}

func (l *rewardedListener) OnRewardedVideoLoadSuccess(adUnitID string) {
	if !l.ours("onRewardedVideoLoadSuccess", adUnitID) {
		return
	}
	l.inst.Logger().Debug().Msg("onRewardedVideoLoadSuccess")
	l.inst.Emit(mediation.Loaded(nil))
}

func (l *rewardedListener) OnRewardedVideoLoadFailure(adUnitID string, code ErrorCode) {
	if !l.ours("onRewardedVideoLoadFailure", adUnitID) {
		return
	}
	l.inst.Logger().Debug().Str("code", string(code)).Msg("onRewardedVideoLoadFailure")
	l.inst.Emit(loadFailed(code))
}

func (l *rewardedListener) OnRewardedVideoStarted(adUnitID string) {
	if !l.ours("onRewardedVideoStarted", adUnitID) {
		return
	}
	l.inst.Logger().Debug().Msg("onRewardedVideoStarted")
	l.inst.Emit(mediation.Shown())
}

func (l *rewardedListener) OnRewardedVideoPlaybackError(adUnitID string, code ErrorCode) {
	if !l.ours("onRewardedVideoPlaybackError", adUnitID) {
		return
	}
	l.inst.Logger().Debug().Str("code", string(code)).Msg("onRewardedVideoPlaybackError")
	_, msg := classifier.Classify(code)
	l.inst.Emit(mediation.ShowFailed(msg))
}

func (l *rewardedListener) OnRewardedVideoClicked(adUnitID string) {
	if !l.ours("onRewardedVideoClicked", adUnitID) {
		return
	}
	l.inst.Logger().Debug().Msg("onRewardedVideoClicked")
	l.inst.Emit(mediation.Clicked())
}

func (l *rewardedListener) OnRewardedVideoClosed(adUnitID string) {
	if !l.ours("onRewardedVideoClosed", adUnitID) {
		return
	}
	l.inst.Logger().Debug().Msg("onRewardedVideoClosed")
	l.inst.Emit(mediation.Closed())
}

func (l *rewardedListener) OnRewardedVideoCompleted(adUnitIDs []string, reward Reward) {
	if !slices.Contains(adUnitIDs, l.adUnitID) {
		l.inst.Logger().Warn().
			Strs("ad_units", adUnitIDs).
			Str("requested_ad_unit", l.adUnitID).
			Msg("dropping rewarded video completion for other ad units")
		return
	}
	l.inst.Logger().Debug().Str("label", reward.Label).Int("amount", reward.Amount).Msg("onRewardedVideoCompleted")
	l.inst.Emit(mediation.Rewarded(reward.Label, float64(reward.Amount)))
}
