package telegram

import (
	"fmt"
	"strings"

	"github.com/garyellow/codered-bot-go/internal/logger"
)

// botLogger routes the Telegram library's printf logging into slog at
// debug level.
type botLogger struct {
	log *logger.Logger
}

func (l botLogger) Println(v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
