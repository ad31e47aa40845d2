package optimistic

import (
	"context"

	"github.com/yungbote/learnbridge/internal/platform/logger"
)

// Command is one optimistic mutation: Apply flips local state immediately,
// Send tells the server, Rollback undoes Apply when Send fails. Save/
// favourite toggles, shop purchases and equips all run through this.
type Command struct {
	Name     string
	Apply    func()
	Send     func(ctx context.Context) error
	Rollback func()
}

// Run applies locally, sends, and rolls back on failure. The send error is
// returned so high-stakes flows (purchase) can surface it; low-stakes
// callers may ignore it and rely on the visual revert.
func Run(ctx context.Context, log *logger.Logger, cmd Command) error {
	if cmd.Apply != nil {
		cmd.Apply()
	}
	if cmd.Send == nil {
		return nil
	}
	if err := cmd.Send(ctx); err != nil {
		if cmd.Rollback != nil {
			cmd.Rollback()
		}
		log.Warn("optimistic command rolled back", "command", cmd.Name, "error", err)
		return err
	}
	return nil
}
