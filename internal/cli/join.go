package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aloche971/VoiceApp/internal/roomcode"
	"github.com/aloche971/VoiceApp/internal/ui"
)

var joinFlags callFlags

var joinCmd = &cobra.Command{
	Use:   "join <room-code>",
	Short: "Join a call with a room code",
	Args:  cobra.ExactArgs(1),
	RunE:  runJoin,
}

func init() {
	joinFlags.register(joinCmd)
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, args []string) error {
	roomID := args[0]
	if !roomcode.Valid(roomID) {
		return fmt.Errorf("invalid room code %q", roomID)
	}

	cfg, err := joinFlags.load()
	if err != nil {
		return err
	}

	stop := ui.RunConnectionSpinner("connecting to " + cfg.Domain)
	ctx, err := newCallContext(cfg)
	stop()
	if err != nil {
		return err
	}
	defer ctx.Close()

	info, err := ctx.joinRoom(roomID, joinFlags.userID())
	if err != nil {
		return err
	}

	return runCall(ctx, roomID, info.IsHost, joinFlags.input, joinFlags.output)
}
