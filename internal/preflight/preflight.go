package preflight

import (
	"errors"
	"fmt"

	"github.com/danielemils/new-alice/internal/config"
	"github.com/danielemils/new-alice/internal/deps"
	"github.com/danielemils/new-alice/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check needed before a conversion.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := make([]Result, 0, 4)
	for _, status := range deps.CheckBinaries([]deps.Requirement{deps.SoxRequirement(cfg.Sox.Binary)}) {
		results = append(results, CheckBinary(status))
	}
	results = append(results,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	)
	return results
}

// Err folds failed results into a single configuration error, or nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", "", errors.Join(errs...))
}
