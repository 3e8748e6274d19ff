//go:build !(rp2040 || rp2350)

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	cobra "github.com/spf13/cobra"
	"github.com/tarm/serial"

	"lowpower-go/errcode"
	"lowpower-go/x/fmtx"
)

func newMonitorCmd() *cobra.Command {
	var (
		port  string
		baud  int
		match string
	)
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print a device's log lines from its serial console",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud, ReadTimeout: 500 * time.Millisecond})
			if err != nil {
				return errcode.Wrap(errcode.Error, "open "+port, err)
			}
			go func() {
				<-ctx.Done()
				p.Close()
			}()
			return copyLines(ctx, p, match)
		},
	}
	f := cmd.Flags()
	f.StringVar(&port, "port", "/dev/ttyACM0", "serial device")
	f.IntVar(&baud, "baud", 115200, "baud rate")
	f.StringVar(&match, "match", "", "only print lines containing this text (e.g. \"Warn:\")")
	return cmd
}

// copyLines prints complete lines from r until ctx ends. A read timeout
// surfaces as an empty read or io.EOF and is retried.
func copyLines(ctx context.Context, r io.Reader, match string) error {
	sc := bufio.NewScanner(readerFunc(func(b []byte) (int, error) {
		for {
			n, err := r.Read(b)
			if n > 0 {
				return n, nil
			}
			if ctx.Err() != nil {
				return 0, io.EOF
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return 0, err
			}
		}
	}))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if match == "" || strings.Contains(line, match) {
			fmtx.Fprintf(os.Stdout, "%s\n", line)
		}
	}
	return sc.Err()
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(b []byte) (int, error) { return f(b) }
