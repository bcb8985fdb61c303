package config

import (
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Environment is the explicit resolution context for one check: target Python
// version, platform string, and stub search paths. It is threaded as a
// parameter through every resolution call so that independent checks (e.g.
// fixtures pinning different python-version values) can run concurrently
// without sharing mutable state.
type Environment struct {
	PythonVersion *semver.Version
	Platform      string
	SearchPaths   []string
}

// Default targets the newest syntax the engine models.
func Default() *Environment {
	v, _ := semver.NewVersion("3.13")
	return &Environment{PythonVersion: v, Platform: "linux"}
}

// New parses a python-version string like "3.9" or "3.10.2".
func New(pythonVersion, platform string) (*Environment, error) {
	v, err := semver.NewVersion(pythonVersion)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid python-version %q", pythonVersion)
	}
	return &Environment{PythonVersion: v, Platform: platform}, nil
}

// AtLeast reports whether the target version satisfies the given minimum,
// e.g. AtLeast("3.10") gates PEP 604 union syntax on class objects.
func (e *Environment) AtLeast(minimum string) bool {
	c, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false
	}
	return c.Check(e.PythonVersion)
}
