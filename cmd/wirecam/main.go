// wirecam compiles an HCL job into wear-compensated wire ECM programs.
//
// Usage:
//
//	wirecam [options] job.hcl
//
// Options:
//
//	-machine string    Machine configuration file (default: the job's machine setting)
//	-var name=value    Set a job variable (repeatable)
//	-op string         Compile only the named operation
//	-o string          Output file (default: stdout)
//	-log-level string  Log level: debug, info, warn, error
//	-log-format string Log format: text, json
//	-log-file string   Mirror logs into a rotating file
//
// Examples:
//
//	# Compile every operation of a job
//	wirecam -o part.nc part.hcl
//
//	# Override a variable and compile one operation
//	wirecam -var depth=3 -op outline part.hcl
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"wirecam/pkg/config"
	"wirecam/pkg/errors"
	"wirecam/pkg/job"
	"wirecam/pkg/log"
	"wirecam/pkg/operation"
)

// varFlags collects repeated -var flags.
type varFlags []string

func (v *varFlags) String() string { return strings.Join(*v, ",") }

func (v *varFlags) Set(s string) error {
	*v = append(*v, s)
	return nil
}

func main() {
	var vars varFlags
	machineFile := flag.String("machine", "", "Machine configuration file (default: the job's machine setting)")
	opName := flag.String("op", "", "Compile only the named operation")
	outFile := flag.String("o", "", "Output file (default: stdout)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text, json")
	logFile := flag.String("log-file", "", "Mirror logs into a rotating file")
	flag.Var(&vars, "var", "Set a job variable as name=value (repeatable)")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one job file is required\n")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, options{
		jobFile:     flag.Arg(0),
		vars:        vars,
		machineFile: *machineFile,
		opName:      *opName,
		outFile:     *outFile,
		log:         log.Options{Level: *logLevel, Format: *logFormat, File: *logFile},
	})
	if err != nil {
		report(err)
		os.Exit(1)
	}
}

type options struct {
	jobFile     string
	vars        []string
	machineFile string
	opName      string
	outFile     string
	log         log.Options
}

func run(ctx context.Context, opts options) error {
	vars, err := job.ParseVars(opts.vars)
	if err != nil {
		return err
	}
	j, err := job.Load(opts.jobFile, vars)
	if err != nil {
		return err
	}

	machinePath := opts.machineFile
	if machinePath == "" {
		machinePath = j.Machine
	}
	machine, err := config.LoadMachine(machinePath, false)
	if err != nil {
		return err
	}

	logOpts := log.Options{Level: machine.Log.Level, Format: machine.Log.Format, File: machine.Log.File}
	if opts.log.Level != "" {
		logOpts.Level = opts.log.Level
	}
	if opts.log.Format != "" {
		logOpts.Format = opts.log.Format
	}
	if opts.log.File != "" {
		logOpts.File = opts.log.File
	}
	closer, err := log.Setup(logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger := log.GetLogger("wirecam")
	logger.Info("job %s: %d operation(s), machine %s", filepath.Base(j.File), len(j.Operations), describe(machinePath))

	var out strings.Builder
	compiled := 0
	for i, e := range j.Operations {
		if opts.opName != "" && e.Operation.Name != opts.opName {
			continue
		}
		res, err := operation.Run(ctx, e.Operation, e.Geometry, operation.Settings{
			Index:   i + 1,
			Machine: machine,
		})
		if err != nil {
			return err
		}
		if !res.Report.OK() {
			logger.Warn("operation %q: %d depth violation(s)", res.Operation, res.Report.Count)
		}
		out.WriteString(res.Text)
		compiled++
	}
	if compiled == 0 {
		return errors.JobDecodeError(j.File, opts.opName, fmt.Errorf("no operation named %q", opts.opName))
	}

	if opts.outFile == "" {
		_, err = os.Stdout.WriteString(out.String())
		return err
	}
	if err := os.WriteFile(opts.outFile, []byte(out.String()), 0644); err != nil {
		return err
	}
	logger.Info("wrote %d operation(s) to %s", compiled, opts.outFile)
	return nil
}

func describe(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}

// report prints an error, listing each parameter failure on its own line.
func report(err error) {
	var params *errors.ParamErrors
	if stderrors.As(err, &params) {
		fmt.Fprintf(os.Stderr, "Error: operation %q has invalid parameters:\n", params.Operation)
		for _, e := range params.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Option, e.Message)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
