// Package health runs named dependency checks for readiness probes.
package health

import (
	"context"
	"time"
)

type Check struct {
	Name string
	Fn   func(context.Context) error
}

type Failure struct {
	Name string `json:"name"`
	Err  string `json:"error"`
}

// Run executes every check with its own timeout and returns the failures in order.
func Run(ctx context.Context, timeout time.Duration, checks []Check) []Failure {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	var failures []Failure
	for _, c := range checks {
		if c.Fn == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		err := c.Fn(cctx)
		cancel()
		if err != nil {
			name := c.Name
			if name == "" {
				name = "dependency"
			}
			failures = append(failures, Failure{Name: name, Err: err.Error()})
		}
	}
	return failures
}
