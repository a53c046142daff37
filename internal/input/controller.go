// Package input implements the NES's two controller ports: a 4021 serial
// shift register fed by an 8-button latch, strobed through $4016.
package input

// Button identifies one of the eight standard-controller buttons, encoded
// as the bit position it occupies in the shift register.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller models one 4021 shift register and its button latch.
type Controller struct {
	buttons       uint8
	shiftRegister uint8
	strobe        bool
}

// New creates a Controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton sets or clears a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight button states at once, in A/B/Select/Start/
// Up/Down/Left/Right order.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(order[i])
		}
	}
}

// IsPressed returns true if the button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles a write to the shared strobe line. While strobe is high the
// shift register continuously reloads from the button latch; the falling
// edge freezes it at the button state captured at that instant.
func (c *Controller) Write(value uint8) {
	wasStrobe := c.strobe
	c.strobe = (value & 1) != 0
	if c.strobe || wasStrobe {
		c.shiftRegister = c.buttons
	}
}

// Read shifts out one bit. With strobe high, bit 0 of the live button
// latch is returned on every read (the register never advances). Past the
// eighth bit the register shifts in all 1s, matching real 4021 behavior.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 1
	}
	bit := c.shiftRegister & 1
	c.shiftRegister = (c.shiftRegister >> 1) | 0x80
	return bit
}

// Reset clears button, strobe, and shift-register state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// State is the serializable state of one controller port.
type State struct {
	Buttons       uint8
	ShiftRegister uint8
	Strobe        bool
}

// Snapshot captures the controller's latch and shift register.
func (c *Controller) Snapshot() State {
	return State{Buttons: c.buttons, ShiftRegister: c.shiftRegister, Strobe: c.strobe}
}

// Restore replaces the controller's latch and shift register.
func (c *Controller) Restore(s State) {
	c.buttons, c.shiftRegister, c.strobe = s.Buttons, s.ShiftRegister, s.Strobe
}

// InputState owns both controller ports.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates an InputState with two idle controllers.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// InputStateSnapshot is the serializable state of both controller ports.
type InputStateSnapshot struct {
	Controller1 State
	Controller2 State
}

// Snapshot captures both controllers' state.
func (is *InputState) Snapshot() InputStateSnapshot {
	return InputStateSnapshot{Controller1: is.Controller1.Snapshot(), Controller2: is.Controller2.Snapshot()}
}

// Restore replaces both controllers' state.
func (is *InputState) Restore(s InputStateSnapshot) {
	is.Controller1.Restore(s.Controller1)
	is.Controller2.Restore(s.Controller2)
}

// SetButtons1 sets controller 1's button state.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets controller 2's button state.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read handles a CPU read of $4016/$4017. Only bit 0 carries controller
// data; the upper bits read back whatever the open bus last drove, which
// the bus layer is responsible for masking in (callers that don't route
// through the bus see bit 6 forced high here, matching the common
// open-bus value real hardware leaves on an unconnected port).
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write handles a CPU write to $4016. Both controllers share the single
// strobe line.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
