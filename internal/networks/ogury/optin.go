package ogury

import (
	"strconv"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// OptinVideoAdapter serves Ogury opt-in videos as rewarded videos
type OptinVideoAdapter struct {
	base
}

// NewOptinVideoAdapter creates a rewarded video adapter over sdk
func NewOptinVideoAdapter(sdk SDK, opts ...Option) *OptinVideoAdapter {
	return &OptinVideoAdapter{base: newBase(sdk, mediation.FormatRewardedVideo, opts)}
}

// RequestRewardedVideoAd requests an opt-in video. ctx must be an activity.
func (a *OptinVideoAdapter) RequestRewardedVideoAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	if _, ok := inst.RequireActivity(ctx, "Ogury opt-in video requires the Context to be an Activity for display"); !ok {
		return
	}
	fields := params.Decode(config)
	a.configure(ctx, inst, fields)

	ad := a.sdk.NewOptinVideoAd(ctx, fields.AdUnitID(), &optinListener{adListener{inst: inst, fullscreen: true}})
	inst.Attach(ad)

	inst.Logger().Debug().Str("ad_unit", fields.AdUnitID()).Msg("requesting opt-in video")
	ad.Load()
}

// ShowRewardedVideoAd displays the loaded opt-in video on the main thread
func (a *OptinVideoAdapter) ShowRewardedVideoAd() error {
	return a.tracker.Show(a.thread, showFullscreen("Ogury opt-in video is not loaded"))
}

type optinListener struct {
	adListener
}

// OnAdRewarded forwards rewards whose value is numeric
func (l *optinListener) OnAdRewarded(reward *Reward) {
	if reward == nil {
		l.inst.Logger().Debug().Msg("onAdRewarded without reward")
		return
	}
	amount, err := strconv.ParseFloat(reward.Value, 64)
	if err != nil {
		l.inst.Logger().Warn().Str("name", reward.Name).Str("value", reward.Value).Msg("ignoring non-numeric reward")
		return
	}
	l.inst.Logger().Debug().Str("name", reward.Name).Float64("amount", amount).Msg("onAdRewarded")
	l.inst.Emit(mediation.Rewarded(reward.Name, amount))
}
