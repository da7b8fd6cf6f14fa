/*
Tokt tokenizes text using rules loaded from a TKR rule-set file.

It reads in a rule-set (or manifest) file, builds a tokenizer from it, and
runs it over the given input file, printing the resulting token sequence to
stdout. With no input file, text is read from stdin until EOF.

Usage:

	tokt -r RULES [flags] [FILE]

The flags are:

	-v, --version
		Give the current version of Toks and then exit.

	-r, --rules [FILE]
		Use the provided TKR file for tokenization rules. Defaults to the
		file "rules.tkr" in the current working directory.

	-f, --format [pretty|tsv]
		Print tokens as an aligned table (pretty, the default) or as
		tab-separated kind/line/column/lexeme records (tsv).

	--strict
		Fail on the first span of input that no rule recognizes instead of
		applying the rule set's fallback policy.

	-i, --interactive
		Read input a line at a time and print the tokens of each line as it
		is read. With no FILE, lines come from a readline-backed prompt and
		the session ends on EOF (Ctrl-D); with a FILE, its lines are read
		directly.

In interactive mode each line is tokenized independently, so line numbers in
the output are always 0.
*/
package main

import (
	"fmt"
	"io"
	"os"

	toks "github.com/HelifeWasTaken/Toks"
	"github.com/HelifeWasTaken/Toks/internal/input"
	"github.com/HelifeWasTaken/Toks/internal/version"
	"github.com/HelifeWasTaken/Toks/ruleset"
	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitScanError indicates an unsuccessful program execution due to a
	// problem during tokenization.
	ExitScanError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue loading the rule set or the input.
	ExitInitError
)

const consoleOutputWidth = 80

var (
	returnCode = ExitSuccess

	flagVersion     = pflag.BoolP("version", "v", false, "Give the current version of Toks and then exit.")
	flagRules       = pflag.StringP("rules", "r", "rules.tkr", "Use the given TKR file for tokenization rules.")
	flagFormat      = pflag.StringP("format", "f", "pretty", "Output format, one of 'pretty' or 'tsv'.")
	flagStrict      = pflag.Bool("strict", false, "Fail on unrecognized input instead of applying the fallback policy.")
	flagInteractive = pflag.BoolP("interactive", "i", false, "Tokenize lines interactively from a prompt.")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic("unrecoverable panic occured")
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if *flagFormat != "pretty" && *flagFormat != "tsv" {
		fmt.Fprintf(os.Stderr, "ERROR: unknown output format %q\n", *flagFormat)
		returnCode = ExitInitError
		return
	}

	rs, err := ruleset.LoadBundle(*flagRules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	tk := rs.Tokenizer()

	if *flagInteractive {
		returnCode = runInteractive(tk, pflag.Args())
		return
	}

	text, err := readInput(pflag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	tokens, err := scan(tk, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitScanError
		return
	}

	writeTokens(os.Stdout, tokens)
}

func readInput(args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", args[0], err)
	}
	return string(data), nil
}

func scan(tk *toks.Tokenizer, text string) ([]toks.Token, error) {
	if *flagStrict {
		return tk.TokenizeStrict(text)
	}
	return tk.Tokenize(text)
}

func runInteractive(tk *toks.Tokenizer, args []string) int {
	// readline is only for a live prompt; a FILE argument gets its lines fed
	// through the direct reader instead
	var in input.Reader
	if len(args) == 0 {
		ir, err := input.NewInteractiveReader("toks> ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return ExitInitError
		}
		in = ir
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: reading %q: %s\n", args[0], err.Error())
			return ExitInitError
		}
		defer f.Close()
		in = input.NewDirectReader(f)
	}
	defer in.Close()

	for {
		line, err := in.ReadLine()
		if err == io.EOF {
			return ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return ExitInitError
		}

		tokens, err := scan(tk, line)
		if err != nil {
			// a scan error on one line does not end the session
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			continue
		}

		writeTokens(os.Stdout, tokens)
	}
}

func writeTokens(w io.Writer, tokens []toks.Token) {
	if *flagFormat == "tsv" {
		for _, tok := range tokens {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", string(tok.Kind), tok.Line, tok.Column, tok.Lexeme)
		}
		return
	}

	data := [][]string{{"Kind", "Pos", "Lexeme"}}
	for _, tok := range tokens {
		data = append(data, []string{
			string(tok.Kind),
			fmt.Sprintf("%d:%d", tok.Line, tok.Column),
			fmt.Sprintf("%q", tok.Lexeme),
		})
	}

	tableOpts := rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}

	output := rosed.Edit("").
		InsertTableOpts(0, data, consoleOutputWidth, tableOpts).
		String()

	fmt.Fprintln(w, output)
}
