package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandToggle    Command = "toggle"
	CommandStop      Command = "stop"
	CommandCancel    Command = "cancel"
	CommandFlip      Command = "flip"
	CommandStatus    Command = "status"
	CommandTranslate Command = "translate"
	CommandDevices   Command = "devices"
	CommandHistory   Command = "history"
	CommandWhoami    Command = "whoami"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandToggle:    {},
	CommandStop:      {},
	CommandCancel:    {},
	CommandFlip:      {},
	CommandStatus:    {},
	CommandTranslate: {},
	CommandDevices:   {},
	CommandHistory:   {},
	CommandWhoami:    {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

const defaultHistoryLimit = 20

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	// ClipPath is the positional clip argument of translate.
	ClipPath string
	// Limit bounds history output.
	Limit int
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true, Limit: defaultHistoryLimit}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			return parseCommandArgs(parsed, args[i+1:])
		}
	}

	return parsed, nil
}

// parseCommandArgs consumes the arguments that follow a command.
func parseCommandArgs(parsed Parsed, rest []string) (Parsed, error) {
	switch parsed.Command {
	case CommandTranslate:
		if len(rest) == 0 || strings.TrimSpace(rest[0]) == "" {
			return Parsed{}, errors.New("translate requires a clip path")
		}
		if len(rest) > 1 {
			return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		parsed.ClipPath = rest[0]
		return parsed, nil
	case CommandHistory:
		for i := 0; i < len(rest); i++ {
			if rest[i] != "--limit" {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}
			i++
			if i >= len(rest) {
				return Parsed{}, errors.New("--limit requires a value")
			}
			limit, err := strconv.Atoi(rest[i])
			if err != nil || limit <= 0 {
				return Parsed{}, fmt.Errorf("--limit must be a positive integer: %q", rest[i])
			}
			parsed.Limit = limit
		}
		return parsed, nil
	default:
		if len(rest) > 0 {
			return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		return parsed, nil
	}
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  toggle           Start recording, or stop and upload when already recording
  stop             Stop active recording and upload the clip
  cancel           Cancel active recording or in-flight upload
  flip             Switch between front and back camera
  status           Print current state
  translate FILE   Upload an existing clip and print the translation
  devices          List cameras and microphones
  history          List recent translations (--limit N)
  whoami           Print the signed-in user
  doctor           Run configuration and environment checks
  version          Print version information
  help             Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/signa/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
