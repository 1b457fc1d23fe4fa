package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aloche971/VoiceApp/internal/roomcode"
	"github.com/aloche971/VoiceApp/internal/ui"
)

var hostFlags callFlags

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Start a call and wait for someone to join",
	Long:  `Creates a new room, prints its code and waits for the other side. Share the code out of band; whoever runs "voiceapp join <code>" ends up in the call.`,
	Args:  cobra.NoArgs,
	RunE:  runHost,
}

func init() {
	hostFlags.register(hostCmd)
	rootCmd.AddCommand(hostCmd)
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg, err := hostFlags.load()
	if err != nil {
		return err
	}

	roomID := roomcode.Generate()

	stop := ui.RunConnectionSpinner("connecting to " + cfg.Domain)
	ctx, err := newCallContext(cfg)
	stop()
	if err != nil {
		return err
	}
	defer ctx.Close()

	info, err := ctx.joinRoom(roomID, hostFlags.userID())
	if err != nil {
		return err
	}

	fmt.Println(ui.RoomBox(roomID))
	fmt.Println(ui.MutedStyle.Render("  share this code, then keep this window open"))
	fmt.Println()

	stop = ui.RunWaitingSpinner("waiting for your peer")
	select {
	case peer := <-ctx.handler.PeerJoined:
		stop()
		ui.PrintSuccess(fmt.Sprintf("%s joined", peer))
	case msg := <-ctx.handler.Errors:
		stop()
		return fmt.Errorf("signaling error: %s", msg)
	case <-cmd.Context().Done():
		stop()
		return nil
	}

	return runCall(ctx, roomID, info.IsHost, hostFlags.input, hostFlags.output)
}
