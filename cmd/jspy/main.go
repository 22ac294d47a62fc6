// Command jspy is the jspy interpreter CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"golang.org/x/term"

	"nickandperla.net/jspy/internal/config"
	"nickandperla.net/jspy/internal/logging"
	"nickandperla.net/jspy/pkg/jspy"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("jspy", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		evalStr    = flags.String("e", "", "Evaluate jspy source")
		file       = flags.String("f", "", "Execute jspy file")
		configPath = flags.String("config", "", "Configuration file (default: nearest jspy.toml)")
		dbPath     = flags.String("db", "", "SQLite database path (overrides [store] path)")
		entry      = flags.String("entry", "", "Function to call after the module body")
		session    = flags.String("session", "", "Restore and persist top-level bindings under this snapshot name")
		verbosity  = flags.Int("v", -1, "Log verbosity (overrides [log] verbosity)")
		noStdlib   = flags.Bool("no-stdlib", false, "Disable standard library globals")
	)
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	logging.Configure(cfg.Log.Verbosity, cfg.Log.File)
	log := logging.Get(logging.CLI)

	if *dbPath != "" {
		abs, err := filepath.Abs(*dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg.Store.Path = abs
	}
	if *noStdlib {
		cfg.Runtime.NoStdlib = true
	}
	if *entry == "" {
		*entry = cfg.Runtime.EntryFunction
	}
	if *file == "" && *evalStr == "" {
		*file = cfg.EntryPath()
	}

	rt := jspy.New(jspy.WithConfig(cfg), jspy.WithOutput(stdout))
	defer rt.Close()

	if *session != "" && rt.Store() != nil {
		if err := rt.Restore(*session); err != nil && !errors.Is(err, jspy.ErrNoSnapshot) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		src     string
		evalOpt []jspy.EvalOption
	)
	if *entry != "" {
		evalOpt = append(evalOpt, jspy.WithEntry(*entry))
	}

	switch {
	case *evalStr != "":
		src = *evalStr

	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading file: %v\n", err)
			return 1
		}
		src = string(data)
		evalOpt = append(evalOpt, jspy.WithModule(filepath.Base(*file)))

	case !isTerminal(stdin):
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading stdin: %v\n", err)
			return 1
		}
		src = string(data)

	default:
		stop()
		return runREPL(rt, *session, stdout, stderr)
	}

	log.Debugf("running %d bytes", len(src))
	result, err := rt.EvaluateAsync(ctx, src, evalOpt...)
	if err != nil {
		fmt.Fprint(stderr, jspy.FormatError(err, src))
		if errors.Is(err, jspy.ErrCancelled) {
			return 130
		}
		return 1
	}
	if result != nil && (*evalStr != "" || *entry != "") {
		fmt.Fprintln(stdout, display(result))
	}

	if *session != "" {
		if err := persist(rt, *session); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

func persist(rt *jspy.Runtime, session string) error {
	if rt.Store() == nil {
		return fmt.Errorf("-session %s needs a store (-db or [store] path)", session)
	}
	_, err := rt.Persist(session)
	return err
}

// display shows strings bare and everything else in source form.
func display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return jspy.Repr(v)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
