package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseArgv splits clipboard_cmd into argv with shell-like quoting and
// backslash escapes. No variable or glob expansion happens; argv[0] runs
// directly. A leading '#' comments the whole value out.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv    []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range input {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			word.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	switch {
	case escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}

// mustParseArgv is for built-in defaults only.
func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
