package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Push-to-talk control for transmit.
 *
 * Description:	When a waveform goes to a real transceiver the radio
 *		must be keyed before the first sample and unkeyed after
 *		the last.  Two methods are supported:
 *
 *		  serial:/dev/ttyUSB0:RTS	- RTS or DTR line of a
 *						  serial port.
 *		  gpio:gpiochip0:17		- a GPIO output line.
 *
 *		An empty specification disables keying (VOX, or a file
 *		destination).  Higher voltage means transmit unless the
 *		spec ends in ":INV".
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

type pttMethod int

const (
	pttNone pttMethod = iota
	pttSerial
	pttGPIO
)

// PTT holds an opened keying device.
type PTT struct {
	method pttMethod
	invert bool

	port    *os.File // serial
	useDTR  bool
	gpioOut *gpiocdev.Line
}

/*------------------------------------------------------------------
 *
 * Name:	OpenPTT
 *
 * Purpose:	Parse a PTT specification and open the device, leaving
 *		it unkeyed.
 *
 *------------------------------------------------------------------*/

func OpenPTT(spec string) (*PTT, error) {
	if spec == "" {
		return &PTT{method: pttNone}, nil
	}

	var parts = strings.Split(spec, ":")
	var invert = false
	if strings.EqualFold(parts[len(parts)-1], "INV") {
		invert = true
		parts = parts[:len(parts)-1]
	}

	switch strings.ToLower(parts[0]) {
	case "serial":
		if len(parts) < 2 {
			return nil, fmt.Errorf("ptt spec %q: missing serial device", spec)
		}
		var useDTR = false
		if len(parts) >= 3 {
			switch strings.ToUpper(parts[2]) {
			case "RTS":
			case "DTR":
				useDTR = true
			default:
				return nil, fmt.Errorf("ptt spec %q: line must be RTS or DTR", spec)
			}
		}

		var port, err = os.OpenFile(parts[1], os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("opening PTT serial port %s: %w", parts[1], err)
		}

		var p = &PTT{method: pttSerial, invert: invert, port: port, useDTR: useDTR}
		if err := p.Set(false); err != nil {
			port.Close()
			return nil, err
		}
		return p, nil

	case "gpio":
		if len(parts) < 3 {
			return nil, fmt.Errorf("ptt spec %q: want gpio:<chip>:<line>", spec)
		}
		var offset, err = strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("ptt spec %q: bad GPIO line number: %w", spec, err)
		}

		var initial = 0
		if invert {
			initial = 1
		}
		line, reqErr := gpiocdev.RequestLine(parts[1], offset, gpiocdev.AsOutput(initial))
		if reqErr != nil {
			return nil, fmt.Errorf("requesting GPIO %s line %d: %w", parts[1], offset, reqErr)
		}

		return &PTT{method: pttGPIO, invert: invert, gpioOut: line}, nil
	}

	return nil, fmt.Errorf("ptt spec %q: unknown method %q", spec, parts[0])
}

// Set keys (true) or unkeys (false) the transmitter.
func (p *PTT) Set(transmit bool) error {
	var on = transmit != p.invert

	switch p.method {
	case pttNone:
		return nil

	case pttSerial:
		var fd = int(p.port.Fd())
		var bit = unix.TIOCM_RTS
		if p.useDTR {
			bit = unix.TIOCM_DTR
		}
		var state, err = unix.IoctlGetInt(fd, unix.TIOCMGET)
		if err != nil {
			return fmt.Errorf("reading modem lines: %w", err)
		}
		if on {
			state |= bit
		} else {
			state &^= bit
		}
		if err := unix.IoctlSetInt(fd, unix.TIOCMSET, state); err != nil {
			return fmt.Errorf("setting modem lines: %w", err)
		}
		return nil

	case pttGPIO:
		var v = 0
		if on {
			v = 1
		}
		return p.gpioOut.SetValue(v)
	}

	return nil
}

// Close unkeys and releases the device.
func (p *PTT) Close() error {
	if p.method == pttNone {
		return nil
	}

	var setErr = p.Set(false)

	switch p.method {
	case pttSerial:
		if err := p.port.Close(); err != nil {
			return err
		}
	case pttGPIO:
		if err := p.gpioOut.Close(); err != nil {
			return err
		}
	}

	return setErr
}
