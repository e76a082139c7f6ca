package google

import (
	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// RewardedVideoAdapter serves AdMob and Ad Manager rewarded ads
type RewardedVideoAdapter struct {
	base
}

// NewRewardedVideoAdapter creates a rewarded adapter over sdk
func NewRewardedVideoAdapter(sdk SDK, opts ...Option) *RewardedVideoAdapter {
	return &RewardedVideoAdapter{base: newBase(sdk, mediation.FormatRewardedVideo, opts)}
}

// RequestRewardedVideoAd requests a rewarded ad. ctx must be an activity.
func (a *RewardedVideoAdapter) RequestRewardedVideoAd(ctx mediation.Context, config string, clientParams mediation.ClientParams, listener mediation.Listener) {
	inst := a.tracker.Begin(listener)
	if _, ok := inst.RequireActivity(ctx, "Google rewarded requires the Context to be an Activity for display"); !ok {
		return
	}
	fields := params.Decode(config)
	req := a.adRequest(ctx, fields.Key(), clientParams)

	inst.Logger().Debug().Str("ad_unit", fields.AdUnitID()).Bool("ad_manager", req.AdManager).Msg("requesting rewarded ad")
	a.sdk.LoadRewarded(ctx, fields.AdUnitID(), req, &rewardedLoad{inst: inst})
}

// ShowRewardedVideoAd displays the loaded rewarded ad on the main thread.
// Every reward the SDK grants is forwarded.
func (a *RewardedVideoAdapter) ShowRewardedVideoAd() error {
	return a.tracker.Show(a.thread, func(inst *mediation.Instance, activity *mediation.Activity) {
		ad, ok := inst.Native().(RewardedAd)
		if !ok {
			inst.Emit(mediation.ShowFailed("Google rewarded ad was released before display"))
			return
		}
		ad.Show(activity, func(item RewardItem) {
			inst.Logger().Debug().Str("label", item.Type).Int("amount", item.Amount).Msg("onUserEarnedReward")
			inst.Emit(mediation.Rewarded(item.Type, float64(item.Amount)))
		})
	})
}

type rewardedLoad struct {
	inst *mediation.Instance
}

func (l *rewardedLoad) OnAdLoaded(ad RewardedAd) {
	l.inst.Logger().Debug().Msg("onAdLoaded")
	ad.SetFullScreenContentCallback(&fullScreenCallback{inst: l.inst})
	l.inst.Attach(ad)
	l.inst.Emit(mediation.Loaded(nil))
}

func (l *rewardedLoad) OnAdFailedToLoad(err LoadAdError) {
	l.inst.Logger().Debug().Str("error", err.String()).Msg("onAdFailedToLoad")
	l.inst.Emit(loadFailed(mediation.FormatRewardedVideo, err))
}
