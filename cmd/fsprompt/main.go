package main

import (
	"fmt"
	"os"

	"github.com/papersson/fsprompt/internal/cli"
	"github.com/papersson/fsprompt/internal/utils"
)

// main is the entry point for the fsprompt command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewConsoleLogger()
	if loggerInitializationError != nil {
		fmt.Fprintf(os.Stderr, "logger initialization failed: %v\n", loggerInitializationError)
		os.Exit(1)
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(loggerInstance); applicationExecutionError != nil {
		loggerInstance.Fatal("Error: " + applicationExecutionError.Error())
	}
}
