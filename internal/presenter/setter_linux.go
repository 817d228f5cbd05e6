//go:build linux

package presenter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// wallpaperCommand describes one known wallpaper setter binary. %s in the
// arguments is replaced with the image path.
type wallpaperCommand struct {
	Name   string
	Binary string
	Args   []string
}

// Ordered by preference; the environment narrows the choice first
var wallpaperCommands = []wallpaperCommand{
	{Name: "swww", Binary: "swww", Args: []string{"img", "%s"}},
	{Name: "hyprpaper", Binary: "hyprctl", Args: []string{"hyprpaper", "wallpaper", ",%s"}},
	{Name: "swaybg", Binary: "swaybg", Args: []string{"-i", "%s", "-m", "fill"}},
	{Name: "gnome", Binary: "gsettings", Args: []string{"set", "org.gnome.desktop.background", "picture-uri-dark", "file://%s"}},
	{Name: "feh", Binary: "feh", Args: []string{"--bg-fill", "%s"}},
	{Name: "nitrogen", Binary: "nitrogen", Args: []string{"--set-zoom-fill", "%s"}},
}

// linuxSetter applies wallpapers through whichever setter binary the
// environment offers
type linuxSetter struct {
	logger  *zap.Logger
	command wallpaperCommand
}

// newSetter detects a usable wallpaper command for this session
func newSetter(logger *zap.Logger) (setter, error) {
	cmd := detectCommand(logger)
	if cmd.Binary == "" {
		return nil, fmt.Errorf("no supported wallpaper command found on this system")
	}

	logger.Info("Wallpaper setter detected",
		zap.String("name", cmd.Name),
		zap.String("binary", cmd.Binary))

	return &linuxSetter{logger: logger, command: cmd}, nil
}

// detectCommand narrows the candidates using session hints before falling
// back to the first binary present in PATH
func detectCommand(logger *zap.Logger) wallpaperCommand {
	desktop := os.Getenv("XDG_CURRENT_DESKTOP")
	session := os.Getenv("XDG_SESSION_TYPE")
	wayland := os.Getenv("WAYLAND_DISPLAY")
	hyprland := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")

	logger.Debug("Detecting wallpaper command",
		zap.String("desktop", desktop),
		zap.String("session", session))

	if hyprland != "" {
		for _, cmd := range wallpaperCommands {
			if (cmd.Name == "swww" || cmd.Name == "hyprpaper") && commandExists(cmd.Binary) {
				return cmd
			}
		}
	}

	if strings.Contains(strings.ToLower(desktop), "gnome") {
		for _, cmd := range wallpaperCommands {
			if cmd.Name == "gnome" && commandExists(cmd.Binary) {
				return cmd
			}
		}
	}

	if wayland != "" || session == "wayland" {
		for _, cmd := range wallpaperCommands {
			if (cmd.Name == "swww" || cmd.Name == "swaybg") && commandExists(cmd.Binary) {
				return cmd
			}
		}
	}

	for _, cmd := range wallpaperCommands {
		if commandExists(cmd.Binary) {
			logger.Info("Using fallback wallpaper command", zap.String("name", cmd.Name))
			return cmd
		}
	}

	return wallpaperCommand{}
}

func commandExists(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Apply sets the desktop wallpaper to the given image file
func (s *linuxSetter) Apply(ctx context.Context, imagePath string) error {
	args := make([]string, len(s.command.Args))
	for i, arg := range s.command.Args {
		args[i] = strings.ReplaceAll(arg, "%s", imagePath)
	}

	cmd := exec.CommandContext(ctx, s.command.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to set wallpaper with %s: %w (output: %s)",
			s.command.Name, err, string(output))
	}

	s.logger.Debug("Wallpaper applied",
		zap.String("command", s.command.Name),
		zap.String("path", imagePath))
	return nil
}
