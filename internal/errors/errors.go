package errors

import (
	"fmt"
	"os"

	"github.com/fishbit-app/fishbit/internal/logger"
)

// Format renders an error with the "Error: " prefix all fishbit output uses.
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf renders a formatted message with the "Error: " prefix.
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// NotFound builds the lookup-failure error for user-named entities such as
// habits and fish.
func NotFound(kind, name string) error {
	return fmt.Errorf("%s %q not found", kind, name)
}

// Fatal logs an error and exits the program with exit code 1.
func Fatal(err error) {
	if err != nil {
		logger.Error("fishbit command failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits with code 1.
func Fatalf(format string, args ...interface{}) {
	logger.Error("fishbit command failed", "error", fmt.Sprintf(format, args...))
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
