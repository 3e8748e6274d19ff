// Package uartmodem is a radio collaborator for a cellular modem on a UART.
// Disable puts the modem into minimum functionality (AT+CFUN=0) and Enable
// restores full functionality (AT+CFUN=1).
package uartmodem

import (
	"bytes"
	"context"
	"time"

	"lowpower-go/errcode"
	"lowpower-go/x/logx"
)

// Port is the stream the modem is attached to.
type Port interface {
	Write(b []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

const defaultTimeout = 3 * time.Second

type Modem struct {
	port    Port
	timeout time.Duration
	rx      [64]byte
	line    []byte
}

func New(port Port, timeout time.Duration) *Modem {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Modem{port: port, timeout: timeout, line: make([]byte, 0, 128)}
}

func (m *Modem) Enable() error  { return m.Command("AT+CFUN=1") }
func (m *Modem) Disable() error { return m.Command("AT+CFUN=0") }

// Command sends cmd and waits for the final result line.
func (m *Modem) Command(cmd string) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if _, err := m.port.Write(append([]byte(cmd), '\r', '\n')); err != nil {
		return errcode.Wrap(errcode.RadioFault, cmd, err)
	}
	m.line = m.line[:0]
	for {
		n, err := m.port.RecvSomeContext(ctx, m.rx[:])
		if err != nil {
			if ctx.Err() != nil {
				return errcode.Wrap(errcode.Timeout, cmd, nil)
			}
			return errcode.Wrap(errcode.RadioFault, cmd, err)
		}
		for _, c := range m.rx[:n] {
			if c != '\n' {
				if c != '\r' && len(m.line) < cap(m.line) {
					m.line = append(m.line, c)
				}
				continue
			}
			done, err := m.result(cmd)
			if done {
				return err
			}
			m.line = m.line[:0]
		}
	}
}

// result classifies one complete line. Echoes and unsolicited lines are
// skipped.
func (m *Modem) result(cmd string) (bool, error) {
	switch {
	case bytes.Equal(m.line, []byte("OK")):
		return true, nil
	case bytes.Equal(m.line, []byte("ERROR")), bytes.HasPrefix(m.line, []byte("+CME ERROR")):
		return true, &errcode.E{C: errcode.RadioFault, Op: cmd, Msg: string(m.line)}
	case len(m.line) > 0 && !bytes.Equal(m.line, []byte(cmd)):
		logx.Debugf("modem: %s", string(m.line))
	}
	return false, nil
}
