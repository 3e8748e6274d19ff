//go:build rp2040 || rp2350

package uartmodem

import (
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"lowpower-go/errcode"
	"lowpower-go/types"
)

// Open configures the UART named in cfg and wraps it.
func Open(cfg types.RadioConfig) (*Modem, error) {
	var hw *uartx.UART
	switch cfg.UART {
	case "uart0":
		hw = uartx.UART0
	case "uart1", "":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "uartmodem", Msg: "unknown uart " + cfg.UART}
	}
	// Defaults inside uartx apply to zero fields.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TXPin),
		RX:       machine.Pin(cfg.RXPin),
	}); err != nil {
		return nil, errcode.Wrap(errcode.RadioFault, "uartmodem", err)
	}
	return New(hw, time.Duration(cfg.ConnectTimeoutMs)*time.Millisecond), nil
}
