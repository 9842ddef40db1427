package dispatch

import (
	"errors"
	"fmt"

	"github.com/robotalks/perictl/pkg/periph"
)

var (
	// ErrUnknownAddress indicates no peripheral is assigned to the address.
	ErrUnknownAddress = errors.New("unknown address")
	// ErrUnknownCommand indicates the command is not in the vocabulary of the peripheral.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidData indicates the data word can't be decoded by the command.
	ErrInvalidData = errors.New("invalid data")
)

// AddressError reports a request to an unassigned address.
type AddressError struct {
	Address periph.Address
}

// Error implements error.
func (e *AddressError) Error() string {
	return fmt.Sprintf("%v 0x%02x", ErrUnknownAddress, byte(e.Address))
}

// Unwrap returns ErrUnknownAddress.
func (e *AddressError) Unwrap() error {
	return ErrUnknownAddress
}

// CommandError reports a command not recognized by the addressed peripheral.
type CommandError struct {
	Address periph.Address
	Command periph.Command
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v 0x%02x", e.Address, ErrUnknownCommand, byte(e.Command))
}

// Unwrap returns ErrUnknownCommand.
func (e *CommandError) Unwrap() error {
	return ErrUnknownCommand
}

// DriverError wraps an error returned by a peripheral driver.
type DriverError struct {
	Request periph.Request
	Err     error
}

// Error implements error.
func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %v", e.Request, e.Err)
}

// Unwrap returns the driver error.
func (e *DriverError) Unwrap() error {
	return e.Err
}
