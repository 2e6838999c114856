package errors_test

import (
	"fmt"

	"github.com/agentstation/caremap/pkg/errors"
)

// Example demonstrates how a run separates skippable and fatal failures.
func Example() {
	err := errors.NewNoMappingError("source4")

	if errors.IsNoMapping(err) {
		fmt.Println("skipping source")
	}

	// Output: skipping source
}

// Example_sinkError shows the fatal sink failure surfaced to callers.
func Example_sinkError() {
	err := errors.NewSinkError("file", "out.json", 3, errors.New("disk full"))

	if errors.IsSinkError(err) {
		fmt.Println(err)
	}

	// Output: file sink failed writing 3 records to out.json: disk full
}
