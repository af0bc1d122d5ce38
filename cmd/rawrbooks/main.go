package main

import (
	"fmt"
	"runtime"
)

// Version information, set at link time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	Execute()
}

func versionString() string {
	return fmt.Sprintf("rawrbooks %s (%s, %s)", version, commit[:min(7, len(commit))], runtime.Version())
}
