// Package app provides save-state slot management for the NES emulator
// front-end. The actual state format is owned by internal/snapshot; this
// file only maps a (ROM, slot) pair onto a file path and a small header
// the UI can list without decoding the whole gob payload.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nescore/internal/bus"
	"nescore/internal/snapshot"
)

// StateManager manages on-disk save-state slots for the currently loaded ROM.
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// StateSlotInfo describes one save-state slot for a UI listing.
type StateSlotInfo struct {
	SlotNumber int
	Used       bool
	Timestamp  time.Time
	FilePath   string
	FileSize   int64
}

// NewStateManager creates a state manager rooted at saveDirectory.
func NewStateManager(saveDirectory string) *StateManager {
	sm := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      10,
	}
	if err := sm.initialize(); err != nil {
		fmt.Printf("Warning: state manager initialization failed: %v\n", err)
	}
	return sm
}

func (sm *StateManager) initialize() error {
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	sm.initialized = true
	return nil
}

// SaveState writes the bus's full state to the given slot's file.
func (sm *StateManager) SaveState(b *bus.Bus, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	path := sm.getSlotFilePath(slot, romPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create save state file: %w", err)
	}
	defer f.Close()

	if err := snapshot.Save(f, b); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// LoadState restores the bus's full state from the given slot's file.
func (sm *StateManager) LoadState(b *bus.Bus, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	path := sm.getSlotFilePath(slot, romPath)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("save state not found in slot %d", slot)
		}
		return fmt.Errorf("open save state file: %w", err)
	}
	defer f.Close()

	if err := snapshot.Load(f, b); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	return nil
}

// DeleteState removes a save-state slot's file.
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d", slot)
	}
	path := sm.getSlotFilePath(slot, romPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}
	return os.Remove(path)
}

// HasSaveState reports whether a slot has a file on disk.
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}
	_, err := os.Stat(sm.getSlotFilePath(slot, romPath))
	return err == nil
}

// GetSlotInfo lists all slots for romPath, used and empty alike.
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := 0; i < sm.maxSlots; i++ {
		info := StateSlotInfo{SlotNumber: i}
		path := sm.getSlotFilePath(i, romPath)
		if stat, err := os.Stat(path); err == nil {
			info.Used = true
			info.FilePath = path
			info.FileSize = stat.Size()
			info.Timestamp = stat.ModTime()
		}
		slots[i] = info
	}
	return slots
}

func (sm *StateManager) getSlotFilePath(slot int, romPath string) string {
	romName := filepath.Base(romPath)
	romName = romName[:len(romName)-len(filepath.Ext(romName))]
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%s_slot_%d.nsnap", romName, slot))
}

// GetMaxSlots returns the number of save-state slots available per ROM.
func (sm *StateManager) GetMaxSlots() int { return sm.maxSlots }

// GetSaveDirectory returns the directory save states are written under.
func (sm *StateManager) GetSaveDirectory() string { return sm.saveDirectory }

// Cleanup releases the state manager. It holds no resources that need
// explicit closing; this exists so Application.Cleanup has a uniform
// shutdown path across its components.
func (sm *StateManager) Cleanup() error {
	sm.initialized = false
	return nil
}
