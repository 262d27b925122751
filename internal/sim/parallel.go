package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/softbody/internal/dynamo"
)

// Ensemble runs independent simulators concurrently. Each simulator must
// own its model.
type Ensemble struct {
	names []string
	sims  []*Simulator
}

func NewEnsemble() *Ensemble {
	return &Ensemble{}
}

func (e *Ensemble) Add(name string, s *Simulator) {
	e.names = append(e.names, name)
	e.sims = append(e.sims, s)
}

func (e *Ensemble) Len() int { return len(e.sims) }

// Run returns results in the order simulators were added. The first error
// is returned with the name of the run that produced it.
func (e *Ensemble) Run(ctx context.Context, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(e.sims))
	errs := make([]error, len(e.sims))

	var wg sync.WaitGroup
	for i, s := range e.sims {
		wg.Add(1)
		go func(idx int, s *Simulator) {
			defer wg.Done()
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}(i, s)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.names[i], err)
		}
	}

	return results, nil
}
