package indicator

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

var supportedLocales = []language.Tag{language.English, language.Urdu}

var localeMatcher = language.NewMatcher(supportedLocales)

type messages struct {
	recording string
	complete  string
	errorText string
}

func indicatorMessagesFromEnv() messages {
	raw := os.Getenv("LC_MESSAGES")
	if strings.TrimSpace(raw) == "" {
		raw = os.Getenv("LANG")
	}
	return indicatorMessages(resolveLocale(raw))
}

// resolveLocale maps a POSIX locale such as "ur_PK.UTF-8" to a supported tag.
func resolveLocale(raw string) language.Tag {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.ReplaceAll(raw, "_", "-")
	if raw == "" || raw == "C" || raw == "POSIX" {
		return language.English
	}

	parsed, err := language.Parse(raw)
	if err != nil {
		return language.English
	}
	_, index, confidence := localeMatcher.Match(parsed)
	if confidence == language.No {
		return language.English
	}
	return supportedLocales[index]
}

func indicatorMessages(tag language.Tag) messages {
	switch tag {
	case language.Urdu:
		return messages{
			recording: "ریکارڈنگ…",
			complete:  "ترجمہ مکمل",
			errorText: "خرابی",
		}
	default:
		return messages{
			recording: "Recording…",
			complete:  "Translated",
			errorText: "Translation error",
		}
	}
}

func (m messages) recordingText(facing string, maxSeconds int) string {
	text := m.recording
	if facing != "" {
		text = fmt.Sprintf("%s %s", text, facing)
	}
	if maxSeconds > 0 {
		text = fmt.Sprintf("%s (≤%ds)", text, maxSeconds)
	}
	return text
}
