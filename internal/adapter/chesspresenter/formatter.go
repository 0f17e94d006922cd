package chesspresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-boardchess/pkg/chessdto"
)

const (
	historyHeader = "Recent games"
	profileHeader = "Player profile"
	helpHeader    = "Commands"

	recentMovesLimit = 6
	timeLayout       = "2006-01-02 15:04"
)

// PrefixProvider exposes the command prefix shown in help and hints.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders chess DTOs into plain text blocks.
type Formatter struct {
	prefixProvider PrefixProvider
}

func NewFormatter(provider PrefixProvider) *Formatter {
	return &Formatter{prefixProvider: provider}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// Board draws the position with rank and file labels, marking the selected
// square with brackets and its destinations with '*'.
func (f *Formatter) Board(state *chessdto.SessionState) string {
	if state == nil || len(state.Rows) == 0 {
		return ""
	}
	marks := make(map[string]byte, len(state.Destinations)+1)
	for _, sq := range state.Destinations {
		marks[sq] = '*'
	}
	if state.Selected != "" {
		marks[state.Selected] = '['
	}

	var sb strings.Builder
	for i, row := range state.Rows {
		rank := len(state.Rows) - i
		sb.WriteString(fmt.Sprintf("%d ", rank))
		for col := 0; col < len(row); col++ {
			sq := fmt.Sprintf("%c%d", 'a'+col, rank)
			cell := row[col]
			switch marks[sq] {
			case '[':
				sb.WriteString(fmt.Sprintf("[%c]", cell))
			case '*':
				if cell == '.' {
					sb.WriteString(" * ")
				} else {
					sb.WriteString(fmt.Sprintf("*%c*", cell))
				}
			default:
				sb.WriteString(fmt.Sprintf(" %c ", cell))
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  ")
	for col := 0; col < len(state.Rows[0]); col++ {
		sb.WriteString(fmt.Sprintf(" %c ", 'a'+col))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (f *Formatter) Status(state *chessdto.SessionState) string {
	if state == nil {
		return f.NoSession()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (white) vs %s (black)", state.WhiteName, state.BlackName))
	if state.Computer != "" {
		sb.WriteString(fmt.Sprintf(", computer plays %s", state.Computer))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("• Score: %s\n", formatScore(state.WhiteName, state.BlackName, state.Scores)))
	sb.WriteString(fmt.Sprintf("• Moves: %d", len(state.MovesUCI)))
	if len(state.MovesUCI) > 0 {
		sb.WriteString(" (" + formatRecentMoves(state.MovesUCI) + ")")
	}
	sb.WriteString("\n")
	if state.Finished {
		sb.WriteString(formatOutcome(state.Winner, state.ResultMethod, state.WhiteName, state.BlackName))
		if state.GameID > 0 {
			sb.WriteString(fmt.Sprintf("\n• Record: #%d", state.GameID))
		}
		return sb.String()
	}
	if state.Selected != "" {
		sb.WriteString(fmt.Sprintf("• Selected: %s -> %s\n", state.Selected, strings.Join(state.Destinations, " ")))
	}
	sb.WriteString(fmt.Sprintf("• %s to move (%s)", state.TurnName, state.Turn))
	return sb.String()
}

// Action joins the service message with a short status and the error code, if any.
func (f *Formatter) Action(resp *chessdto.ActionResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	if msg := strings.TrimSpace(resp.Message); msg != "" {
		parts = append(parts, msg)
	} else if resp.Error != nil {
		parts = append(parts, resp.Error.Error())
	}
	if resp.State != nil && resp.State.Finished {
		parts = append(parts, formatOutcome(resp.State.Winner, resp.State.ResultMethod, resp.State.WhiteName, resp.State.BlackName))
	}
	return strings.Join(parts, "\n")
}

func (f *Formatter) Help() string {
	p := f.Prefix()
	lines := []string{
		helpHeader,
		"• " + p + "click <square>     select a piece or move the selected one",
		"• " + p + "move <from> <to>   move in one step",
		"• " + p + "undo / " + p + "redo",
		"• " + p + "computer           let the computer play for the side to move",
		"• " + p + "resign",
		"• " + p + "status             show the board and scores",
		"• " + p + "png <file>         write the board image",
		"• " + p + "history [name] [n] list finished games",
		"• " + p + "record <id>        show one finished game",
		"• " + p + "profile <name>     show a player's results",
		"• " + p + "new [computer|friends]",
		"• " + p + "quit",
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) History(games []*chessdto.GameRecord) string {
	if len(games) == 0 {
		return "No finished games yet."
	}
	var sb strings.Builder
	sb.WriteString(historyHeader)
	sb.WriteByte('\n')
	for _, game := range games {
		sb.WriteString(fmt.Sprintf("• #%d %s vs %s, %s (%d moves) %s\n",
			game.ID, game.WhiteName, game.BlackName,
			formatResultBadge(game.Winner, game.WhiteName, game.BlackName),
			len(game.MovesUCI), formatShortTime(game.EndedAt)))
		if d := formatGameDuration(game.Duration); d != "" {
			sb.WriteString(fmt.Sprintf("  duration: %s\n", d))
		}
	}
	sb.WriteString(fmt.Sprintf("\nUse `%srecord <id>` for details.", f.Prefix()))
	return sb.String()
}

func (f *Formatter) Game(game *chessdto.GameRecord) string {
	if game == nil {
		return "Game record not found."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Game #%d: %s vs %s (%s)\n", game.ID, game.WhiteName, game.BlackName, game.Mode))
	sb.WriteString(fmt.Sprintf("• Result: %s by %s\n", formatResultBadge(game.Winner, game.WhiteName, game.BlackName), strings.ReplaceAll(game.ResultMethod, "_", " ")))
	sb.WriteString(fmt.Sprintf("• Score: %s\n", formatScore(game.WhiteName, game.BlackName, game.Scores)))
	if !game.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("• Started: %s\n", formatShortTime(game.StartedAt)))
	}
	if d := formatGameDuration(game.Duration); d != "" {
		sb.WriteString(fmt.Sprintf("• Duration: %s\n", d))
	}
	if len(game.MovesUCI) > 0 {
		sb.WriteString("• Moves: ")
		sb.WriteString(formatNumberedMoves(game.MovesUCI))
		sb.WriteString("\n")
	}
	if game.FinalFEN != "" {
		sb.WriteString("• Final: " + game.FinalFEN + "\n")
	}
	return sb.String()
}

func (f *Formatter) Profile(profile *chessdto.PlayerProfile) string {
	if profile == nil {
		return "No profile stored for that player."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s\n", profileHeader, profile.Name))
	sb.WriteString(fmt.Sprintf("• Record: %dW %dL (%d games)\n", profile.Wins, profile.Losses, profile.GamesPlayed))
	if profile.Streak > 1 {
		sb.WriteString(fmt.Sprintf("• Streak: %d %s\n", profile.Streak, formatStreakSuffix(profile.StreakType)))
	}
	sb.WriteString(fmt.Sprintf("• Best score: %d\n", profile.BestScore))
	if !profile.LastPlayedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("• Last played: %s\n", formatShortTime(profile.LastPlayedAt)))
	}
	return sb.String()
}

func (f *Formatter) NoSession() string {
	return fmt.Sprintf("No game in progress. Start one with `%snew`.", f.Prefix())
}

func formatScore(white, black string, s chessdto.Score) string {
	return fmt.Sprintf("%s %d : %d %s", white, s.White, s.Black, black)
}

func formatRecentMoves(moves []string) string {
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "… " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

func formatNumberedMoves(moves []string) string {
	var sb strings.Builder
	for i, mv := range moves {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%d.", i/2+1))
		}
		sb.WriteByte(' ')
		sb.WriteString(mv)
	}
	return sb.String()
}

func formatOutcome(winner, method, white, black string) string {
	name := white
	if winner == "black" {
		name = black
	}
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "resign":
		return fmt.Sprintf("Game over: %s wins by resignation.", name)
	case "no_legal_moves":
		return fmt.Sprintf("Game over: %s wins, the opponent has no legal moves.", name)
	default:
		return "Game over."
	}
}

func formatResultBadge(winner, white, black string) string {
	switch strings.ToLower(strings.TrimSpace(winner)) {
	case "white":
		return white + " won"
	case "black":
		return black + " won"
	default:
		return "unfinished"
	}
}

func formatStreakSuffix(streakType string) string {
	switch strings.ToLower(strings.TrimSpace(streakType)) {
	case "win":
		return "wins"
	case "loss":
		return "losses"
	default:
		return "games"
	}
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
