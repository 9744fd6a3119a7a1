package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/config"
)

// Args returns the emulator arguments for req: configured extras, the game
// catalog location and finally the rom set.
func Args(emu config.EmulatorConfig, req *Request) []string {
	args := make([]string, 0, len(emu.Args)+2)
	args = append(args, emu.Args...)
	if req.GamesXMLPath != "" {
		args = append(args, "-game-xml-file="+req.GamesXMLPath)
	}
	return append(args, req.RomPath)
}

// Command builds the emulator process. It runs inside the user data root so
// the emulator finds Config/Supermodel.ini and its NVRAM and save folders.
func Command(ctx context.Context, emu config.EmulatorConfig, req *Request) *exec.Cmd {
	cmd := exec.CommandContext(ctx, emu.Binary, Args(emu, req)...)
	cmd.Dir = req.UserDataRoot
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Run starts the emulator and waits for it to exit.
func Run(ctx context.Context, emu config.EmulatorConfig, req *Request) error {
	cmd := Command(ctx, emu, req)
	logutil.GetLogger(ctx).Info("starting emulator",
		zap.String("binary", emu.Binary),
		zap.Strings("args", cmd.Args[1:]),
		zap.String("dir", cmd.Dir),
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run emulator %s: %w", emu.Binary, err)
	}
	return nil
}
