// Package misc holds the helpers shared by the q2types subcommands
package misc

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// ErrorCheck logs the error and exits, it is only used by the command line
func ErrorCheck(err error) {
	if err != nil {
		log.Fatal("ERROR: ", err)
	}
}

// StartLogging opens (or creates) the log file for appending
func StartLogging(logFile string) *os.File {
	logFH, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		panic(err)
	}
	return logFH
}

// CheckRequiredFlags returns an error naming every required flag that was not set
func CheckRequiredFlags(flags *pflag.FlagSet) error {
	var missing []string
	flags.VisitAll(func(flag *pflag.Flag) {
		requiredAnnotation, found := flag.Annotations["cobra_annotation_bash_completion_one_required_flag"]
		if !found {
			return
		}
		if (requiredAnnotation[0] == "true") && !flag.Changed {
			missing = append(missing, flag.Name)
		}
	})
	if len(missing) > 0 {
		return fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))
	}
	return nil
}
