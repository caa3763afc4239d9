package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// CheckEngineConstraint reports whether binaryVersion satisfies the semver
// constraint a configuration file declares in its engine field.
//
// Rules:
//   - An empty constraint accepts every version
//   - A malformed constraint is always an error
//   - A "main" binary is a development build and skips the check
//   - Otherwise the constraint is evaluated with Masterminds semver syntax
//
// Examples:
//   - binary 0.3.1, constraint ">= 0.3" -> OK
//   - binary 0.3.1, constraint "~0.2"   -> ERROR
//   - binary main,  constraint "^1"     -> OK
func CheckEngineConstraint(binaryVersion, constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid engine constraint %q", constraint)
	}

	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	if binaryVersion == "main" {
		return nil
	}

	v, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid binary version %q", binaryVersion)
	}

	if ok, reasons := c.Validate(v); !ok {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, errors.Join(reasons...),
			"argo-signal %s does not satisfy the configured engine constraint %q", v, constraint)
	}

	return nil
}
