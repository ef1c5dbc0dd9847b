package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/quill-lang/quill/pkg/ast"
	"github.com/quill-lang/quill/pkg/evaluator"
	"github.com/quill-lang/quill/pkg/runtime"
)

const historyFile = ".quill_history"

// cmdRepl runs the interactive session. Each submitted chunk is a complete
// program fragment (fields and methods) declared into a child of the
// previous scope, so re-submitting a definition shadows the earlier one. A
// chunk that defines main/0 is run immediately and its result echoed.
func cmdRepl() int {
	rt, err := runtime.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, historyFile)
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Println("Quill interactive session. Ctrl-D exits, Ctrl-C discards the current input.")

	for {
		chunk, ok := readChunk(line)
		if !ok {
			break
		}
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		line.AppendHistory(strings.ReplaceAll(chunk, "\n", " "))

		src, err := rt.Declare(chunk)
		if err != nil {
			printError(err, true)
			continue
		}
		if definesMain(src) {
			result, err := rt.Invoke("main")
			if err != nil {
				printError(err, true)
				continue
			}
			fmt.Println(evaluator.Display(result))
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	fmt.Println()
	return 0
}

// readChunk collects input lines until they form a syntactically complete
// chunk. The second result is false when the session should end.
func readChunk(line *liner.State) (string, bool) {
	var b strings.Builder
	prompt := ">> "
	for {
		text, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			return "", true
		}
		if err != nil { // io.EOF or a terminal failure
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)

		chunk := b.String()
		if strings.TrimSpace(chunk) == "" {
			return "", true
		}
		if !incomplete(chunk) {
			return chunk, true
		}
		prompt = ".. "
	}
}

// incomplete probes the chunk with a parse. An error positioned at the end
// of the trimmed input means more lines may still complete it; an error
// anywhere earlier is a real syntax error worth surfacing now.
func incomplete(source string) bool {
	err := runtime.Check(source)
	if err == nil {
		return false
	}
	diag := runtime.DiagnosticOf(err)
	if diag.Offset == nil {
		return false
	}
	end := len(strings.TrimRight(source, " \t\r\n"))
	return *diag.Offset >= end
}

func definesMain(src *ast.Source) bool {
	for _, method := range src.Methods {
		if method.Name == "main" && len(method.Params) == 0 {
			return true
		}
	}
	return false
}
