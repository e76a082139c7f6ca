// Package placement maps host placement ids to the network, format and
// configuration string an adapter is requested with.
package placement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thenexusengine/tne_mediation/internal/mediation"
	"github.com/thenexusengine/tne_mediation/internal/mediation/params"
)

// ErrNotFound is returned for an unknown or disabled placement
var ErrNotFound = errors.New("placement not found")

// Placement binds a host placement to one network adapter
type Placement struct {
	ID        string           `json:"id"`
	Network   string           `json:"network"`
	Format    mediation.Format `json:"format"`
	Config    string           `json:"config"`
	Enabled   bool             `json:"enabled"`
	UpdatedAt time.Time        `json:"updated_at,omitempty"`
}

// Fields decodes the configuration string
func (p *Placement) Fields() params.Fields {
	return params.Decode(p.Config)
}

// Validate checks the fields every adapter request needs
func (p *Placement) Validate() error {
	if p.ID == "" {
		return errors.New("placement id is required")
	}
	if p.Network == "" {
		return fmt.Errorf("placement %s: network is required", p.ID)
	}
	switch p.Format {
	case mediation.FormatBanner, mediation.FormatInterstitial, mediation.FormatRewardedVideo:
	default:
		return fmt.Errorf("placement %s: unknown format %q", p.ID, p.Format)
	}
	return nil
}

// Source loads the full set of enabled placements
type Source interface {
	Name() string
	Load(ctx context.Context) (map[string]*Placement, error)
}
