package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Serial port interface for the decoded-message feed.
 *
 * Description:	A receive station often hands decoded messages to
 *		downstream equipment over a serial line.  This hides
 *		the port handling; the drivers write one newline
 *		terminated message per decode.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"

	"github.com/pkg/term"
)

/*-------------------------------------------------------------------
 *
 * Name:	SerialOpen
 *
 * Purpose:	Open a serial port in raw mode.
 *
 * Inputs:	devicename	- Usually /dev/tty...
 *				  Could be /dev/rfcomm0 for Bluetooth.
 *
 *		baud		- Speed.  1200, 4800, 9600 bps, etc.
 *				  If 0, leave it alone.
 *
 *---------------------------------------------------------------*/

func SerialOpen(devicename string, baud int) (*term.Term, error) {
	var fd, err = term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", devicename, err)
	}

	switch baud {
	case 0: /* Leave it alone. */
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := fd.SetSpeed(baud); err != nil {
			fd.Close()
			return nil, fmt.Errorf("setting %s to %d baud: %w", devicename, baud, err)
		}
	default:
		fd.Close()
		return nil, fmt.Errorf("unsupported serial speed %d", baud)
	}

	return fd, nil
}

// SerialWrite sends bytes down the port and returns an error unless every
// byte was written; after a short write the leading bytes have been sent.
func SerialWrite(fd *term.Term, data []byte) error {
	var written, err = fd.Write(data)
	if err != nil {
		return fmt.Errorf("writing to serial port: %w", err)
	}
	if written != len(data) {
		return fmt.Errorf("short serial write: %d of %d bytes", written, len(data))
	}
	return nil
}

// SerialClose releases the port.
func SerialClose(fd *term.Term) {
	if fd != nil {
		fd.Close()
	}
}
