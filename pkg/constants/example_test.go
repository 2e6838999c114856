package constants_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentstation/caremap/pkg/constants"
)

// Example demonstrates using constants for common operations
func Example() {
	dir, err := os.MkdirTemp("", "caremap-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "batch.json")
	if err := os.WriteFile(path, []byte("[]"), constants.FilePermissions); err != nil {
		fmt.Println(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	_ = ctx

	fmt.Println(constants.DefaultTable)
	// Output: child_care_info
}
