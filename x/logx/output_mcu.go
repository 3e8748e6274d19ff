//go:build rp2040 || rp2350

package logx

import (
	"io"

	"lowpower-go/x/fmtx"
)

// fmtx.DefaultOutput is read at each call so a bootstrap that installs a UART
// writer after package init is honoured.
type mcuOut struct{}

func (mcuOut) Write(p []byte) (int, error) { return fmtx.DefaultOutput.Write(p) }

func defaultOutput() io.Writer { return mcuOut{} }
