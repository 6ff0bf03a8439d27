// Command hybridmind optimizes content for LLM context windows from the
// command line.
//
// Usage:
//
//	hybridmind optimize -task "fix the parser bug" [-type debug] [-max-tokens 4000] FILE
//	hybridmind chain -steps steps.yaml FILE
//	hybridmind version
//
// Both commands read the content from FILE (or stdin when FILE is "-")
// and print the optimization result as JSON on stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	hybridmind "github.com/itheroservices-hub/hybridmind-sub004"
	"github.com/itheroservices-hub/hybridmind-sub004/config"
	"github.com/itheroservices-hub/hybridmind-sub004/contextmgr"
	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "optimize":
		runOptimize(os.Args[2:])
	case "chain":
		runChain(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runOptimize(args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	task := fs.String("task", "", "Task description the content is optimized for")
	taskType := fs.String("type", "general", "Task type: analysis, refactor, generate, debug, general")
	maxTokens := fs.Int("max-tokens", 0, "Token budget (0 uses the configured default)")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	fs.Parse(args)

	content := readContent(fs.Arg(0))
	manager := newManager(*configPath, *verbose)
	defer manager.Close()

	result := manager.ProcessContext(content, *task, types.TaskType(*taskType), *maxTokens)
	printJSON(result)
}

func runChain(args []string) {
	fs := flag.NewFlagSet("chain", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	stepsPath := fs.String("steps", "", "Path to a YAML file listing the chain steps")
	global := fs.String("global", "", "Global context appended to every step")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	fs.Parse(args)

	if *stepsPath == "" {
		fmt.Fprintln(os.Stderr, "chain requires -steps")
		os.Exit(1)
	}
	data, err := os.ReadFile(*stepsPath)
	if err != nil {
		fatal("read steps", err)
	}
	var steps []types.Step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		fatal("parse steps", err)
	}

	content := readContent(fs.Arg(0))
	manager := newManager(*configPath, *verbose)
	defer manager.Close()

	result := manager.ProcessChainContext(content, steps, *global)
	printJSON(result)
}

func newManager(configPath string, verbose bool) *contextmgr.Manager {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fatal("load config", err)
		}
		cfg = loaded
	}

	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fatal("init logger", err)
		}
		logger = l
	}

	manager, err := hybridmind.NewFromConfig(cfg, hybridmind.WithLogger(logger))
	if err != nil {
		fatal("create manager", err)
	}
	return manager
}

func readContent(path string) string {
	if path == "" {
		fmt.Fprintln(os.Stderr, "missing input file (use - for stdin)")
		os.Exit(1)
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fatal("read input", err)
	}
	return string(data)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("encode result", err)
	}
}

func printVersion() {
	fmt.Printf("hybridmind %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`hybridmind - context optimization engine

Usage:
  hybridmind optimize -task TEXT [-type TYPE] [-max-tokens N] [-config FILE] FILE
  hybridmind chain -steps STEPS.yaml [-global TEXT] [-config FILE] FILE
  hybridmind version
  hybridmind help

FILE may be - to read from stdin.`)
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
