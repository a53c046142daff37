//go:build !headless
// +build !headless

package graphics

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitengineBackend implements Backend on top of Ebitengine. It is the
// windowed counterpart to the headless backend: the bus doesn't know or
// care which one is driving it, it only ever sees a frame buffer and a
// stream of InputEvents.
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineWindow implements Window on top of an ebiten.Game.
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *EbitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
}

// EbitengineGame adapts the NES frame buffer and controller input to
// ebiten's Update/Draw/Layout contract.
type EbitengineGame struct {
	window       *EbitengineWindow
	frameBuffer  [256 * 240]uint32
	frameImage   *ebiten.Image
	nesWidth     int
	nesHeight    int
	windowWidth  int
	windowHeight int

	drawCount int // throttles debug logging

	// imageBuffer is reused across frames; converting the NES frame buffer
	// to an *image.RGBA every frame would otherwise allocate 60 times a
	// second for no reason.
	imageBuffer *image.RGBA
}

// NewEbitengineBackend creates a new Ebitengine graphics backend.
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend.
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates an Ebitengine window sized to display the 256x240
// NES picture scaled to fit.
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	game := &EbitengineGame{
		nesWidth:     256,
		nesHeight:    240,
		windowWidth:  width,
		windowHeight: height,
		frameImage:   ebiten.NewImage(256, 240),
		imageBuffer:  image.NewRGBA(image.Rect(0, 0, 256, 240)),
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}

	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)

	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	ebiten.SetScreenFilterEnabled(b.config.Filter == "linear")

	return window, nil
}

// Cleanup releases all Ebitengine resources.
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode.
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name.
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title.
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions.
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close.
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers is handled automatically by Ebitengine.
func (w *EbitengineWindow) SwapBuffers() {}

// PollEvents returns and clears the events accumulated since the last call.
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads a completed NES frame buffer to the GPU texture
// ebiten will draw from next frame.
func (w *EbitengineWindow) RenderFrame(frameBuffer [256 * 240]uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	w.game.frameBuffer = frameBuffer

	img := w.game.imageBuffer
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			r := uint8((pixel >> 16) & 0xFF)
			g := uint8((pixel >> 8) & 0xFF)
			b := uint8(pixel & 0xFF)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	w.game.frameImage.ReplacePixels(img.Pix)
	return nil
}

// Cleanup releases window resources.
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop; it blocks until the window closes.
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	return ebiten.RunGame(w.game)
}

// SetEmulatorUpdateFunc sets the per-frame emulator tick callback.
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// Update implements ebiten.Game.Update.
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}

	g.processInput()

	if g.window.emulatorUpdateFunc != nil {
		if err := g.window.emulatorUpdateFunc(); err != nil {
			log.Printf("[ebitengine] emulator update error: %v", err)
		}
	}

	return nil
}

// Draw implements ebiten.Game.Draw, scaling the 256x240 NES picture to
// fit the window while preserving its aspect ratio.
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0, G: 0, B: 0, A: 255})

	if g.frameImage == nil {
		return
	}

	op := &ebiten.DrawImageOptions{}

	scaleX := float64(g.windowWidth) / float64(g.nesWidth)
	scaleY := float64(g.windowHeight) / float64(g.nesHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	offsetX := (float64(g.windowWidth) - float64(g.nesWidth)*scale) / 2
	offsetY := (float64(g.windowHeight) - float64(g.nesHeight)*scale) / 2

	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)

	screen.DrawImage(g.frameImage, op)

	g.drawCount++
	if g.drawCount%1800 == 0 {
		log.Printf("[ebitengine] drawing frame %d at %.2fx scale", g.drawCount, scale)
	}
}

// Layout implements ebiten.Game.Layout.
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// keyMappings enumerates every ebiten key this backend watches. It is a
// package-level table rather than a literal rebuilt every Update call.
var keyMappings = map[ebiten.Key]Key{
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeySpace:      KeySpace,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyW:          KeyW,
	ebiten.KeyA:          KeyA,
	ebiten.KeyS:          KeyS,
	ebiten.KeyD:          KeyD,
	ebiten.KeyJ:          KeyJ,
	ebiten.KeyK:          KeyK,
	ebiten.KeyX:          KeyX,
	ebiten.KeyZ:          KeyZ,
	// Number row drives the second controller.
	ebiten.Key1:  Key1,
	ebiten.Key2:  Key2,
	ebiten.Key3:  Key3,
	ebiten.Key4:  Key4,
	ebiten.Key5:  Key5,
	ebiten.Key6:  Key6,
	ebiten.Key7:  Key7,
	ebiten.Key8:  Key8,
	ebiten.KeyF1: KeyF1, ebiten.KeyF2: KeyF2, ebiten.KeyF3: KeyF3,
	ebiten.KeyF4: KeyF4, ebiten.KeyF5: KeyF5, ebiten.KeyF6: KeyF6,
	ebiten.KeyF7: KeyF7, ebiten.KeyF8: KeyF8, ebiten.KeyF9: KeyF9,
	ebiten.KeyF10: KeyF10, ebiten.KeyF11: KeyF11, ebiten.KeyF12: KeyF12,
}

// buttonMappings maps the logical keys above onto NES controller buttons.
// Controller 1 uses arrows/WASD + J/K/Enter/Space; controller 2 rides the
// number row so both pads are reachable from a single keyboard.
var buttonMappings = map[Key]Button{
	KeyUp:    ButtonUp,
	KeyDown:  ButtonDown,
	KeyLeft:  ButtonLeft,
	KeyRight: ButtonRight,
	KeyW:     ButtonUp,
	KeyS:     ButtonDown,
	KeyA:     ButtonLeft,
	KeyD:     ButtonRight,
	KeyJ:     ButtonA,
	KeyK:     ButtonB,
	KeyEnter: ButtonStart,
	KeySpace: ButtonSelect,

	Key1: Button2Up,
	Key2: Button2Down,
	Key3: Button2Left,
	Key4: Button2Right,
	Key5: Button2A,
	Key6: Button2B,
	Key7: Button2Start,
	Key8: Button2Select,
}

// processInput polls ebiten's key-change tracking and turns it into the
// InputEvent stream the application layer consumes via PollEvents.
func (g *EbitengineGame) processInput() {
	if g.window == nil {
		return
	}

	var events []InputEvent

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}

	for ebitenKey, key := range keyMappings {
		var rawEvent InputEvent
		switch {
		case inpututil.IsKeyJustPressed(ebitenKey):
			rawEvent = InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true}
		case inpututil.IsKeyJustReleased(ebitenKey):
			rawEvent = InputEvent{Type: InputEventTypeKey, Key: key, Pressed: false}
		default:
			continue
		}

		if button, ok := buttonMappings[key]; ok {
			events = append(events, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: rawEvent.Pressed})
		} else {
			events = append(events, rawEvent)
		}
	}

	g.window.events = append(g.window.events, events...)
}
