package registry

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/workplane/internal/observability/logger"
)

// sagaStep es un paso con su compensación. Run avanza; Undo revierte lo
// hecho por Run (y sólo eso).
type sagaStep struct {
	Name string
	Run  func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// runSaga ejecuta los pasos en orden. Ante la primera falla ejecuta los
// Undo de los pasos ya completados en orden inverso, de forma síncrona,
// antes de devolver el error: ningún caller observa estado a medias.
func runSaga(ctx context.Context, steps []sagaStep) error {
	done := make([]sagaStep, 0, len(steps))
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			compensate(ctx, done)
			return fmt.Errorf("registry: step %s: %w", step.Name, err)
		}
		done = append(done, step)
	}
	return nil
}

func compensate(ctx context.Context, done []sagaStep) {
	log := logger.Named("registry")
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			// La compensación es best-effort pero nunca silenciosa.
			log.Error("saga undo failed", logger.Op(step.Name), logger.Err(err))
		}
	}
}
