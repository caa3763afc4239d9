package arbiter

import (
	"github.com/rxtech-lab/argo-signal/internal/divergence"
	"github.com/rxtech-lab/argo-signal/internal/momentum"
)

func divergenceDetector() *divergence.Detector {
	return divergence.NewDetector(divergence.DefaultConfig())
}

func momentumValidator() *momentum.Validator {
	return momentum.NewValidator(momentum.DefaultConfig())
}
