package voice

import (
	"fmt"
	"log/slog"
	"strings"
)

// FromSource builds a recognizer from a source string:
//
//	ws://host/path or wss://host/path   streaming speech service
//	cmd:program arg...                  external speech-to-text program
//	file:/path/to/transcript.log        tailed transcript file
//
// An empty source yields Unsupported.
func FromSource(source string, logger *slog.Logger) (Recognizer, error) {
	source = strings.TrimSpace(source)

	switch {
	case source == "":
		return Unsupported{}, nil
	case strings.HasPrefix(source, "ws://"), strings.HasPrefix(source, "wss://"):
		return NewWebSocketRecognizer(source, nil, logger), nil
	case strings.HasPrefix(source, "cmd:"):
		parts := strings.Fields(strings.TrimPrefix(source, "cmd:"))
		if len(parts) == 0 {
			return nil, fmt.Errorf("voice source %q names no command", source)
		}
		return NewCommandRecognizer(parts[0], parts[1:], logger), nil
	case strings.HasPrefix(source, "file:"):
		path := strings.TrimPrefix(source, "file:")
		if path == "" {
			return nil, fmt.Errorf("voice source %q names no file", source)
		}
		return NewFileRecognizer(path, logger), nil
	default:
		return nil, fmt.Errorf("unknown voice source %q", source)
	}
}
