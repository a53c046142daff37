// Package main implements the nescore NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nescore/internal/app"
	"nescore/internal/version"
)

func main() {
	// Parse command line flags
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file (optional for GUI mode)")
		configFile = flag.String("config", "", "Path to configuration file")
		debug      = flag.Bool("debug", false, "Enable debug mode")
		nogui      = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *version {
		printVersion()
		os.Exit(0)
	}

	// Set up graceful shutdown
	setupGracefulShutdown()

	fmt.Println("🎮 nescore starting...")

	// Determine config file path
	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	// Create application
	application, err := app.NewApplicationWithMode(configPath, *nogui)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Force headless backend only when explicitly requested with -nogui
	if *nogui {
		config := application.GetConfig()
		config.Video.Backend = "headless"
		fmt.Println("🖥️  Headless mode requested")
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("Application cleanup error: %v", err)
		}
	}()

	// Apply debug settings
	if *debug {
		config := application.GetConfig()
		config.UpdateDebug(true, true, true)
		application.ApplyDebugSettings()
		fmt.Println("🐛 Debug mode enabled")
	}

	// Load ROM if specified
	if *romFile != "" {
		fmt.Printf("📁 Loading ROM: %s\n", *romFile)
		if err := application.LoadROM(*romFile); err != nil {
			log.Fatalf("Failed to load ROM: %v", err)
		}
		fmt.Println("✅ ROM loaded successfully")

		// Re-apply debug settings after ROM load (PPU might be recreated)
		if *debug {
			application.ApplyDebugSettings()
		}
	}

	if *nogui {
		// Run in headless mode (for testing or automation)
		fmt.Println("Running in headless mode...")
		if *romFile == "" {
			log.Fatal("ROM file required for headless mode")
		}
		runHeadlessMode(application)
	} else {
		// Run full GUI application
		fmt.Println("🖥️  Starting GUI mode...")
		if err := runGUIMode(application); err != nil {
			log.Fatalf("GUI mode failed: %v", err)
		}
	}

	fmt.Println("👋 Emulator shutting down...")
}

// runGUIMode runs the full GUI application
func runGUIMode(application *app.Application) error {
	fmt.Println("🚀 Initializing GUI application...")

	// Display startup information
	config := application.GetConfig()
	windowWidth, windowHeight := config.GetWindowResolution()
	fmt.Printf("   Window: %dx%d (Scale: %dx)\n", windowWidth, windowHeight, config.Window.Scale)
	fmt.Printf("   Audio: %s (%d Hz, %.0f%% volume)\n",
		enabledString(config.Audio.Enabled),
		config.Audio.SampleRate,
		config.Audio.Volume*100)
	fmt.Printf("   Video: %s, %s, VSync: %s\n",
		config.Video.Filter,
		config.Video.AspectRatio,
		enabledString(config.Video.VSync))

	// Start the application
	fmt.Println("🎯 Starting main application loop...")
	if err := application.Run(); err != nil {
		return fmt.Errorf("application run failed: %v", err)
	}

	// Display shutdown statistics
	fmt.Printf("📊 Session Statistics:\n")
	fmt.Printf("   Frames rendered: %d\n", application.GetFrameCount())
	fmt.Printf("   Session time: %v\n", application.GetUptime())
	fmt.Printf("   Average FPS: %.1f\n", application.GetFPS())

	return nil
}

// runHeadlessMode runs the emulator without GUI (for testing/automation),
// dumping a handful of frame buffers as PPM so a run can be sanity-checked
// without a window.
func runHeadlessMode(application *app.Application) {
	fmt.Println("🖥️  Running emulator in headless mode...")

	b := application.GetBus()
	if b == nil {
		fmt.Println("❌ bus not initialized")
		return
	}

	const targetFrames = 120
	dumpAt := map[int]bool{30: true, 60: true, 119: true}
	for frame := 0; frame < targetFrames; frame++ {
		b.EmulateFrame()

		if dumpAt[frame] {
			name := fmt.Sprintf("frame_%03d.ppm", frame+1)
			fmt.Printf("📸 writing %s\n", name)
			saveFrameBufferAsPPM(b.GetFrameBuffer(), name)
		}
		if frame%30 == 29 {
			fmt.Printf("⏱️  %d/%d frames done\n", frame+1, targetFrames)
		}
	}

	fmt.Println("✅ headless run complete")
}

// saveFrameBufferAsPPM saves the frame buffer as a PPM image file
func saveFrameBufferAsPPM(frameBuffer [256 * 240]uint32, filename string) {
	file, err := os.Create(filename)
	if err != nil {
		fmt.Printf("❌ could not create %s: %v\n", filename, err)
		return
	}
	defer file.Close()

	// PPM header
	fmt.Fprintf(file, "P3\n256 240\n255\n")

	// RGB data
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			r := (pixel >> 16) & 0xFF
			g := (pixel >> 8) & 0xFF
			b := pixel & 0xFF
			fmt.Fprintf(file, "%d %d %d ", r, g, b)
		}
		fmt.Fprintf(file, "\n")
	}

	fmt.Printf("✅ %s written\n", filename)
}

// setupGracefulShutdown sets up signal handling for graceful shutdown
func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\n🛑 Interrupt received, shutting down gracefully...")
		os.Exit(0)
	}()
}

// enabledString returns "enabled" or "disabled" based on boolean value
func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func printVersion() {
	version.PrintBuildInfo()
}

func printUsage() {
	fmt.Println("nescore - cycle-accurate NES emulator")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  A cycle-accurate Nintendo Entertainment System emulator written in Go,")
	fmt.Println("  built around a per-dot 6502 CPU/2C02 PPU tick orchestrator. Rendering")
	fmt.Println("  and audio run on Ebitengine, with a headless backend for automation.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nescore [options]                    # Start GUI mode without ROM")
	fmt.Println("  nescore -rom <file> [options]        # Start with ROM loaded")
	fmt.Println("  nescore -nogui -rom <file> [options] # Run headless mode")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  nescore                              # Start GUI, load ROM from menu")
	fmt.Println("  nescore -rom game.nes                # Start with ROM loaded")
	fmt.Println("  nescore -rom game.nes -debug         # Start with debug info enabled")
	fmt.Println("  nescore -config custom.json          # Use custom configuration")
	fmt.Println("  nescore -nogui -rom test.nes         # Run headless for testing")
	fmt.Println()
	fmt.Println("CONTROLS (Default):")
	fmt.Println("  Player 1:")
	fmt.Println("    Arrow Keys / WASD - D-Pad")
	fmt.Println("    J                 - A Button")
	fmt.Println("    K                 - B Button")
	fmt.Println("    Enter             - Start")
	fmt.Println("    Space             - Select")
	fmt.Println()
	fmt.Println("  Special Keys:")
	fmt.Println("    Escape            - Quit")
	fmt.Println("    F1-F12            - Not bound (function-key events are ignored)")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  Config file: ./config/nescore.json")
	fmt.Println("  ROMs:        ./roms/")
	fmt.Println("  Save States: ./states/")
	fmt.Println("  Screenshots: ./screenshots/")
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  - iNES (.nes) and NES 2.0 headers")
	fmt.Println("  - NROM (Mapper 0)")
	fmt.Println("  - MMC3 (Mapper 4), including scanline IRQ")
	fmt.Println()
	fmt.Println("For more information, visit the project documentation.")
}
