package logger

import (
	"flag"
	"fmt"
	"strings"
)

// Flags holds all logging-related command-line flags
type Flags struct {
	LogLevel     string
	LogFormat    string
	LogFile      string
	DebugBWE     bool
	DebugEncode  bool
	DebugSession bool
	DebugPacer   bool
	DebugAll     bool
}

// RegisterFlags registers logging flags with the given FlagSet
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}

	fs.StringVar(&f.LogLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	fs.StringVar(&f.LogLevel, "l", "info",
		"Log level (shorthand)")

	fs.StringVar(&f.LogFormat, "log-format", "text",
		"Log output format: text, json")

	fs.StringVar(&f.LogFile, "log-file", "",
		"Log output file path (default: stdout)")
	fs.StringVar(&f.LogFile, "o", "",
		"Log output file path (shorthand)")

	fs.BoolVar(&f.DebugBWE, "debug-bwe", false,
		"Enable bandwidth-estimate and smoother commit debugging")
	fs.BoolVar(&f.DebugEncode, "debug-encode", false,
		"Enable encoder stage debugging (resolution changes, rate reconfig)")
	fs.BoolVar(&f.DebugSession, "debug-session", false,
		"Enable session-state transition debugging (ICE, media binding)")
	fs.BoolVar(&f.DebugPacer, "debug-pacer", false,
		"Enable frame pump / driver cadence debugging")
	fs.BoolVar(&f.DebugAll, "debug-all", false,
		"Enable all debug categories")

	return f
}

// ToConfig converts Flags to a logger Config
func (f *Flags) ToConfig() (*Config, error) {
	cfg := NewConfig()

	level, err := ParseLevel(f.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Level = level

	format, err := ParseFormat(f.LogFormat)
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	cfg.OutputFile = f.LogFile

	if f.DebugAll {
		cfg.EnableCategory(DebugAll)
		cfg.Level = LevelDebug
	} else {
		if f.DebugBWE {
			cfg.EnableCategory(DebugBWE)
			cfg.Level = LevelDebug
		}
		if f.DebugEncode {
			cfg.EnableCategory(DebugEncode)
			cfg.Level = LevelDebug
		}
		if f.DebugSession {
			cfg.EnableCategory(DebugSession)
			cfg.Level = LevelDebug
		}
		if f.DebugPacer {
			cfg.EnableCategory(DebugPacer)
			cfg.Level = LevelDebug
		}
	}

	return cfg, nil
}

// PrintUsageExamples prints usage examples for logging flags
func PrintUsageExamples() {
	examples := `
Logging Examples:

  Basic usage (INFO level, text format to stdout):
    ./server

  Enable DEBUG level:
    ./server --log-level debug
    ./server -l debug

  Log to file:
    ./server --log-file server.log
    ./server -o server.log

  JSON format for structured logging:
    ./server --log-format json -o server.json

  Debug bandwidth-estimate commits only:
    ./server --debug-bwe

  Debug encoder resolution/rate changes only:
    ./server --debug-encode

  Debug everything:
    ./server --debug-all -o debug.log

  Production logging (WARN level, JSON to file):
    ./server -l warn --log-format json -o production.log
`
	fmt.Println(examples)
}

// String returns a string representation of enabled flags
func (f *Flags) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("level=%s", f.LogLevel))
	parts = append(parts, fmt.Sprintf("format=%s", f.LogFormat))

	if f.LogFile != "" {
		parts = append(parts, fmt.Sprintf("output=%s", f.LogFile))
	} else {
		parts = append(parts, "output=stdout")
	}

	var debugCategories []string
	if f.DebugAll {
		debugCategories = append(debugCategories, "all")
	} else {
		if f.DebugBWE {
			debugCategories = append(debugCategories, "bwe")
		}
		if f.DebugEncode {
			debugCategories = append(debugCategories, "encode")
		}
		if f.DebugSession {
			debugCategories = append(debugCategories, "session")
		}
		if f.DebugPacer {
			debugCategories = append(debugCategories, "pacer")
		}
	}

	if len(debugCategories) > 0 {
		parts = append(parts, fmt.Sprintf("debug=[%s]", strings.Join(debugCategories, ",")))
	}

	return strings.Join(parts, " ")
}
