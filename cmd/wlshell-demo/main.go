// Command wlshell-demo opens a toplevel window and paints a hue-cycling
// gradient through the shared-memory backend, driven by the compositor's
// frame clock.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/wlshell"
	"github.com/bnema/wlshell/internal/config"
	"github.com/bnema/wlshell/internal/logger"
)

// Version is set during build
var Version = "0.1.0-dev"

var (
	flagConfig string
	flagWidth  int32
	flagHeight int32
	flagTitle  string
)

var rootCmd = &cobra.Command{
	Use:          "wlshell-demo",
	Short:        "wlshell demo window",
	Long:         `Opens a Wayland toplevel window rendered with shared-memory buffers.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	rootCmd.Flags().Int32Var(&flagWidth, "width", 0, "window width")
	rootCmd.Flags().Int32Var(&flagHeight, "height", 0, "window height")
	rootCmd.Flags().StringVar(&flagTitle, "title", "", "window title")
}

func run(cmd *cobra.Command) error {
	if flagConfig != "" {
		config.SetConfigPath(flagConfig)
	}
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()
	if cfg.Logging.LogLevel != "" {
		logger.SetLevel(cfg.Logging.LogLevel)
	}

	width, height, title := cfg.Window.Width, cfg.Window.Height, cfg.Window.Title
	if flagWidth > 0 {
		width = flagWidth
	}
	if flagHeight > 0 {
		height = flagHeight
	}
	if flagTitle != "" {
		title = flagTitle
	}

	wm, err := wlshell.NewWindowManager(&wlshell.Options{
		EnableCursor: cfg.Cursor.Enabled,
		CursorTheme:  cfg.Cursor.Theme,
	})
	if err != nil {
		return err
	}
	defer wm.Destroy()

	var win *wlshell.Window
	frame := 0
	win, err = wm.CreateWindow(title, cfg.Window.AppID, width, height, wlshell.WindowShm, func(time uint32) {
		backend := win.Backend().(*wlshell.ShmBackend)
		paintGradient(backend, frame)
		frame++
	})
	if err != nil {
		return err
	}

	running := true
	win.OnClose = func() {
		logger.Info("close requested")
		running = false
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		wm.Post(func() { running = false })
	}()

	logger.Info("window up", "title", title, "width", width, "height", height)
	for running && wm.Dispatch(16) >= 0 {
	}
	return nil
}

// paintGradient fills the buffer with a diagonal gradient whose hue
// advances each frame.
func paintGradient(b *wlshell.ShmBackend, frame int) {
	w, h := int(b.Width()), int(b.Height())
	pix := b.Pixels()
	hue := frame % 360
	r, g, bl := hueRGB(hue)
	for y := 0; y < h; y++ {
		row := y * w * 4
		for x := 0; x < w; x++ {
			shade := uint32(255 * (x + y) / (w + h))
			off := row + x*4
			pix[off] = byte(bl * shade / 255)
			pix[off+1] = byte(g * shade / 255)
			pix[off+2] = byte(r * shade / 255)
			pix[off+3] = 0xff
		}
	}
}

// hueRGB converts a hue in degrees to full-saturation RGB.
func hueRGB(hue int) (r, g, b uint32) {
	seg := hue / 60
	rem := uint32(hue%60) * 255 / 60
	switch seg {
	case 0:
		return 255, rem, 0
	case 1:
		return 255 - rem, 255, 0
	case 2:
		return 0, 255, rem
	case 3:
		return 0, 255 - rem, 255
	case 4:
		return rem, 0, 255
	default:
		return 255, 0, 255 - rem
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
