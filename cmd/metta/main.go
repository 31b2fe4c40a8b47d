package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/mettatron/metta"
)

// Version is a version of this build.
var Version = "metta/0.1"

func main() {
	var (
		verbose       bool
		workers       int
		maxIterations int
		configPath    string
		statePath     string
	)
	pflag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pflag.IntVarP(&workers, "workers", "w", 0, "concurrent evaluations per batch")
	pflag.IntVar(&maxIterations, "max-iterations", 0, "fixed-point iteration bound")
	pflag.StringVarP(&configPath, "config", "c", "metta.yaml", "config file")
	pflag.StringVar(&statePath, "state", "", "environment state file to load on start")
	pflag.Parse()

	cfg, err := metta.LoadConfig(configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if maxIterations > 0 {
		cfg.MaxIterations = maxIterations
	}
	if verbose {
		cfg.Verbose = true
	}
	if cfg.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	i := metta.New(cfg)
	if statePath != "" {
		if err := i.LoadState(statePath); err != nil {
			logrus.Fatal(err)
		}
	}

	for _, a := range pflag.Args() {
		results, err := i.ExecFile(a)
		if err != nil {
			logrus.Fatal(err)
		}
		printResults(os.Stdout, results)
	}

	if terminal.IsTerminal(int(os.Stdin.Fd())) {
		repl(i)
		return
	}

	// Piped input runs as one program only when no files were given.
	if pflag.NArg() == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			logrus.Fatal(err)
		}
		results, err := i.Exec(string(data))
		if err != nil {
			logrus.Fatal(err)
		}
		printResults(os.Stdout, results)
	}
}

func printResults(w io.Writer, results []metta.Result) {
	for _, r := range results {
		for _, v := range r.Values {
			fmt.Fprintln(w, v)
		}
	}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".metta_history")
}

func repl(i *metta.Interpreter) {
	fmt.Printf("%s (:quit to exit)\n", Version)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histFile := historyFile()
	if histFile != "" {
		if f, err := os.Open(histFile); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histFile == "" {
			return
		}
		f, err := os.Create(histFile)
		if err != nil {
			return
		}
		_, _ = line.WriteHistory(f)
		_ = f.Close()
	}()

	var buf strings.Builder
	for {
		prompt := "metta> "
		if buf.Len() > 0 {
			prompt = "  ...> "
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				buf.Reset()
				continue
			}
			return
		}

		if buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ":") {
			if quit := command(i, strings.TrimSpace(input)); quit {
				return
			}
			line.AppendHistory(input)
			continue
		}

		buf.WriteString(input)
		buf.WriteByte('\n')
		if parenBalance(buf.String()) > 0 {
			continue
		}

		text := buf.String()
		buf.Reset()
		if strings.TrimSpace(text) == "" {
			continue
		}
		line.AppendHistory(strings.TrimSpace(text))

		results, err := i.Exec(text)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		printResults(os.Stdout, results)
	}
}

// command handles REPL directives; true means quit.
func command(i *metta.Interpreter, input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":quit", ":q":
		return true
	case ":reset":
		i.Reset()
	case ":facts":
		for _, fact := range i.Env().Facts() {
			fmt.Println(fact)
		}
	case ":history":
		entries := i.History().All()
		if arg != "" {
			terms, err := metta.Parse(arg)
			if err != nil || len(terms) != 1 {
				fmt.Fprintln(os.Stderr, "usage: :history [pattern]")
				return false
			}
			entries = i.History().Search(terms[0])
		}
		for _, e := range entries {
			fmt.Println(e.Term)
		}
	case ":save":
		if arg == "" {
			fmt.Fprintln(os.Stderr, "usage: :save <file>")
			return false
		}
		if err := i.SaveState(arg); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case ":load":
		if arg == "" {
			fmt.Fprintln(os.Stderr, "usage: :load <file>")
			return false
		}
		if err := i.LoadState(arg); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s\n", name)
	}
	return false
}

// parenBalance counts unclosed parentheses outside strings and comments, so
// the REPL knows when an expression continues on the next line.
func parenBalance(text string) int {
	depth := 0
	inString := false
	inLineComment := false
	escaped := false
	for _, r := range text {
		switch {
		case inLineComment:
			if r == '\n' {
				inLineComment = false
			}
		case inString:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
		case r == '"':
			inString = true
		case r == ';':
			inLineComment = true
		case r == '(':
			depth++
		case r == ')':
			depth--
		}
	}
	return depth
}
