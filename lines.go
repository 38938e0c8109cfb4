package sieve

import (
	"bufio"
	"io"
	"strings"
)

// ReadLines calls fn with every line of r, stripped of its line ending. Lines are not
// bounded in length, so one oversized record cannot stop a read.
func ReadLines(r io.Reader, fn func(line string)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
