// Package main is the entry point for the textloom CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/dshills/textloom/internal/config"
	"github.com/dshills/textloom/internal/engine"
	"github.com/dshills/textloom/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath string
	inPlace    bool
	readOnly   bool
}

func run() int {
	opts, args := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.readOnly {
		cfg.Document.ReadOnly = true
	}

	if len(args) == 0 {
		flag.Usage()
		return 1
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "apply":
		err = cmdApply(cfg, opts, rest)
	case "lines":
		err = cmdLines(cfg, rest)
	case "info":
		err = cmdInfo(cfg, rest)
	case "watch":
		err = cmdWatch(cfg, rest)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		flag.Usage()
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() (options, []string) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.inPlace, "in-place", false, "Write apply results back to the file")
	flag.BoolVar(&opts.inPlace, "i", false, "Write apply results back to the file (shorthand)")
	flag.BoolVar(&opts.readOnly, "readonly", false, "Open documents read-only")
	flag.BoolVar(&opts.readOnly, "R", false, "Open documents read-only (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Textloom - document model command line\n\n")
		fmt.Fprintf(os.Stderr, "Usage: textloom [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  apply <script.yaml> <file>   Apply an edit script, print the result\n")
		fmt.Fprintf(os.Stderr, "  lines <file>                 Print numbered lines\n")
		fmt.Fprintf(os.Stderr, "  info <file>                  Print document statistics\n")
		fmt.Fprintf(os.Stderr, "  watch <file>                 Report external changes until interrupted\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("textloom %s (%s)\n", version, commit)
		os.Exit(0)
	}

	return opts, flag.Args()
}

func openDocument(cfg config.Config, path string) (*engine.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docOpts := []engine.Option{
		engine.WithContent(string(data)),
		engine.WithHistoryConfig(cfg.HistoryConfig()),
	}
	if cfg.Document.ReadOnly {
		docOpts = append(docOpts, engine.WithReadOnly())
	}
	return engine.New(docOpts...), nil
}

// scriptStep is one undo group of an edit script.
type scriptStep struct {
	Origin string `yaml:"origin"`
	Edits  []struct {
		From   int    `yaml:"from"`
		To     int    `yaml:"to"`
		Insert string `yaml:"insert"`
	} `yaml:"edits"`
}

func cmdApply(cfg config.Config, opts options, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("apply: want <script.yaml> <file>, got %d args", len(args))
	}
	scriptPath, docPath := args[0], args[1]

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	var steps []scriptStep
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return fmt.Errorf("parsing %s: %w", scriptPath, err)
	}

	doc, err := openDocument(cfg, docPath)
	if err != nil {
		return err
	}
	for i, step := range steps {
		origin := step.Origin
		if origin == "" {
			origin = "script"
		}
		edits := make([]engine.Edit, len(step.Edits))
		for j, e := range step.Edits {
			edits[j] = engine.Edit{From: e.From, To: e.To, Insert: e.Insert}
		}
		if _, err := doc.Apply(origin, edits...); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		doc.CloseHistory()
	}

	if opts.inPlace {
		return os.WriteFile(docPath, []byte(doc.Text()), 0o644)
	}
	fmt.Print(doc.Text())
	return nil
}

func cmdLines(cfg config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("lines: want <file>, got %d args", len(args))
	}
	doc, err := openDocument(cfg, args[0])
	if err != nil {
		return err
	}
	for n := 1; n <= doc.Lines(); n++ {
		line, err := doc.Line(n)
		if err != nil {
			return err
		}
		fmt.Printf("%6d\t%s\n", n, line.Text)
	}
	return nil
}

func cmdInfo(cfg config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("info: want <file>, got %d args", len(args))
	}
	doc, err := openDocument(cfg, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("path:     %s\n", args[0])
	fmt.Printf("bytes:    %d\n", doc.Len())
	fmt.Printf("lines:    %d\n", doc.Lines())
	fmt.Printf("revision: %d\n", doc.Revision())
	return nil
}

func cmdWatch(cfg config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("watch: want <file>, got %d args", len(args))
	}
	path := args[0]
	doc, err := openDocument(cfg, path)
	if err != nil {
		return err
	}

	w, err := watch.New()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	fmt.Fprintf(os.Stderr, "watching %s (%d bytes, %d lines)\n", path, doc.Len(), doc.Lines())
	for {
		select {
		case <-signals:
			return nil
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Op.Has(watch.OpRemove) || ev.Op.Has(watch.OpRename) {
				fmt.Fprintf(os.Stderr, "%s: gone (%s)\n", path, ev.Op)
				continue
			}
			if err := reload(doc, path); err != nil {
				fmt.Fprintf(os.Stderr, "reload error: %v\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: %s -> revision %d (%d bytes, %d lines)\n",
				path, ev.Op, doc.Revision(), doc.Len(), doc.Lines())
		}
	}
}

// reload syncs the document with the file as an external edit, keeping
// any local undo history valid.
func reload(doc *engine.Document, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	old, next := doc.Text(), string(data)
	if old == next {
		return nil
	}
	from, to, insert := diffEdit(old, next)
	_, err = doc.ApplyExternal(engine.Edit{From: from, To: to, Insert: insert})
	return err
}

// diffEdit reduces a whole-content replacement to the changed middle.
func diffEdit(old, next string) (from, to int, insert string) {
	prefix := 0
	for prefix < len(old) && prefix < len(next) && old[prefix] == next[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(next)-prefix &&
		old[len(old)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}
	return prefix, len(old) - suffix, next[prefix : len(next)-suffix]
}
