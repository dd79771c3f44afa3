package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Save decoded messages to a log file.
 *
 * Description:	Rather than scrolling decodes away on a terminal,
 *		write separated properties into CSV format for easy
 *		reading and later processing.
 *
 *		There are two alternatives:
 *
 *		A full file path	- everything goes in that file.
 *
 *		A directory		- daily names like 2026-08-01.log
 *					  are created inside it.
 *
 *		The timestamp column format is a strftime pattern so
 *		station operators can match whatever their other
 *		tooling expects.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"
)

const rxlogDefaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// RxLog appends one CSV record per decode attempt.
type RxLog struct {
	dailyNames bool
	path       string
	timeFormat string

	file    *os.File
	writer  *csv.Writer
	openDay string
}

/*------------------------------------------------------------------
 *
 * Name:	OpenRxLog
 *
 * Purpose:	Prepare the receive log.
 *
 * Inputs:	path		- Log file name, or a directory for
 *				  daily names.  Empty disables logging.
 *
 *		timeFormat	- strftime pattern for the timestamp
 *				  column; empty for the default.
 *
 *------------------------------------------------------------------*/

func OpenRxLog(path string, timeFormat string) (*RxLog, error) {
	var l = &RxLog{path: path, timeFormat: timeFormat}
	if l.timeFormat == "" {
		l.timeFormat = rxlogDefaultTimeFormat
	}
	if path == "" {
		return l, nil
	}

	// Validate the pattern up front so a typo fails at startup, not on
	// the first decode hours later.
	if _, err := strftime.Format(l.timeFormat, time.Now()); err != nil {
		return nil, fmt.Errorf("bad rxlog time format %q: %w", l.timeFormat, err)
	}

	var info, statErr = os.Stat(path)
	l.dailyNames = statErr == nil && info.IsDir()

	return l, nil
}

// Write appends one decode outcome.  Errors are logged, not returned;
// a full disk must not take the receiver down.
func (l *RxLog) Write(result DecodeResult) {
	if l.path == "" {
		return
	}

	if err := l.ensureOpen(); err != nil {
		logger.Error("rxlog: cannot open log file", "err", err)
		return
	}

	var stamp, err = strftime.Format(l.timeFormat, time.Now())
	if err != nil {
		stamp = time.Now().Format(time.RFC3339)
	}

	var snr = ""
	if len(result.SNRdB) > 0 {
		snr = strconv.FormatFloat(result.SNRdB[0], 'f', 1, 64)
	}

	var record = []string{
		stamp,
		strconv.Itoa(len(result.Bytes)),
		strconv.FormatBool(result.SyncFailed),
		strconv.FormatBool(result.CRCFailed),
		strconv.FormatBool(result.PartialDecode),
		strconv.Itoa(len(result.PreamblePositions)),
		snr,
		string(result.Bytes),
	}

	if err := l.writer.Write(record); err != nil {
		logger.Error("rxlog: write failed", "err", err)
		return
	}
	l.writer.Flush()
}

// ensureOpen opens the right file, rolling over at midnight when daily
// names are in use.
func (l *RxLog) ensureOpen() error {
	var target = l.path
	var day = ""
	if l.dailyNames {
		day = time.Now().Format("2006-01-02")
		target = filepath.Join(l.path, day+".log")
	}

	if l.file != nil && day == l.openDay {
		return nil
	}
	if l.file != nil {
		l.writer.Flush()
		l.file.Close()
		l.file = nil
	}

	var f, err = os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	var needHeader = false
	if info, statErr := f.Stat(); statErr == nil && info.Size() == 0 {
		needHeader = true
	}

	l.file = f
	l.writer = csv.NewWriter(f)
	l.openDay = day

	if needHeader {
		l.writer.Write([]string{"time", "bytes", "sync_failed", "crc_failed", "partial", "preambles", "snr_db", "message"}) //nolint:errcheck
		l.writer.Flush()
	}

	return nil
}

// Close flushes and closes the log.
func (l *RxLog) Close() {
	if l.file != nil {
		l.writer.Flush()
		l.file.Close()
		l.file = nil
	}
}
