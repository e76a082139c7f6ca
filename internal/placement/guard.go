package placement

import (
	"context"

	"github.com/thenexusengine/tne_mediation/pkg/breaker"
)

type guardedSource struct {
	Source
	cb *breaker.CircuitBreaker
}

// Guard runs the loads of source through cb. While the circuit is open
// refreshes fail fast and the catalog keeps serving its last snapshot.
func Guard(source Source, cb *breaker.CircuitBreaker) Source {
	return &guardedSource{Source: source, cb: cb}
}

func (g *guardedSource) Load(ctx context.Context) (map[string]*Placement, error) {
	var loaded map[string]*Placement
	err := g.cb.Execute(func() error {
		var err error
		loaded, err = g.Source.Load(ctx)
		return err
	})
	return loaded, err
}
