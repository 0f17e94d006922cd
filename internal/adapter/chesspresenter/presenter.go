package chesspresenter

import (
	"strings"

	"github.com/park285/Cheese-boardchess/pkg/chessdto"
)

// Presenter delivers formatted messages and board images without coupling to the command layer.
type Presenter struct {
	formatter   *Formatter
	sendMessage func(message string) error
	sendImage   func(png []byte) error
}

func NewPresenter(formatter *Formatter, sendMessage func(message string) error, sendImage func(png []byte) error) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	return &Presenter{
		formatter:   formatter,
		sendMessage: sendMessage,
		sendImage:   sendImage,
	}
}

// Board sends message, the text board and, when given, the rendered image.
func (p *Presenter) Board(message string, state *chessdto.SessionState, image []byte) error {
	if p == nil {
		return nil
	}

	if p.sendMessage != nil {
		var parts []string
		if text := strings.TrimSpace(message); text != "" {
			parts = append(parts, text)
		}
		if state != nil && !state.Finished {
			parts = append(parts, strings.TrimRight(p.formatter.Board(state), "\n"))
		}
		if len(parts) > 0 {
			if err := p.sendMessage(strings.Join(parts, "\n\n")); err != nil {
				return err
			}
		}
	}

	if len(image) > 0 && p.sendImage != nil {
		if err := p.sendImage(image); err != nil {
			return err
		}
	}

	return nil
}

// Action presents the outcome of a session action.
func (p *Presenter) Action(resp *chessdto.ActionResponse, image []byte) error {
	if p == nil || resp == nil {
		return nil
	}
	return p.Board(p.formatter.Action(resp), resp.State, image)
}

// Text sends a plain message.
func (p *Presenter) Text(message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(message)
}
