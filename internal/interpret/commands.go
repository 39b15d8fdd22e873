package interpret

import "strings"

// Command is a spoken wizard control word.
type Command int

const (
	CommandNone Command = iota
	CommandConfirm
	CommandEdit
	CommandBack
	CommandSubmit
	CommandCancel
)

func (c Command) String() string {
	switch c {
	case CommandConfirm:
		return "confirm"
	case CommandEdit:
		return "edit"
	case CommandBack:
		return "back"
	case CommandSubmit:
		return "submit"
	case CommandCancel:
		return "cancel"
	default:
		return "none"
	}
}

// Checked in order, so "cancel" wins over everything else in a sentence.
var commandWords = []struct {
	words   []string
	command Command
}{
	{[]string{"cancel", "close", "nevermind"}, CommandCancel},
	{[]string{"submit", "send"}, CommandSubmit},
	{[]string{"confirm", "approve", "approved", "looks good"}, CommandConfirm},
	{[]string{"edit", "change"}, CommandEdit},
	{[]string{"back", "previous"}, CommandBack},
}

var politeWords = map[string]bool{
	"please": true, "go": true, "ok": true, "okay": true, "now": true, "it": true,
}

// ParseCommand recognizes an utterance that is nothing but a command, such
// as "go back" or "cancel please". Used while capturing free text, where a
// command word inside a sentence is content.
func ParseCommand(utterance string) Command {
	words := tokenize(utterance)
	if len(words) == 0 {
		return CommandNone
	}

	var rest []string
	for _, w := range words {
		if !politeWords[w] {
			rest = append(rest, w)
		}
	}

	phrase := strings.Join(rest, " ")
	for _, entry := range commandWords {
		for _, w := range entry.words {
			if phrase == w {
				return entry.command
			}
		}
	}

	return CommandNone
}

// FindCommand recognizes a command word anywhere in the utterance.
func FindCommand(utterance string) Command {
	words := tokenize(utterance)
	if len(words) == 0 {
		return CommandNone
	}

	joined := " " + strings.Join(words, " ") + " "
	for _, entry := range commandWords {
		for _, w := range entry.words {
			if strings.Contains(joined, " "+w+" ") {
				return entry.command
			}
		}
	}

	return CommandNone
}

func tokenize(utterance string) []string {
	return strings.FieldsFunc(strings.ToLower(utterance), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	})
}
