package llm

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// errStreamDone stops streamSSE without reporting a failure.
var errStreamDone = errors.New("sse stream done")

// streamSSE reads server-sent events and calls onEvent once per event with
// its name and joined data lines. onEvent returning errStreamDone ends the
// stream cleanly.
func streamSSE(r io.Reader, onEvent func(event string, data string) error) error {
	br := bufio.NewReader(r)
	var (
		eventName string
		dataLines []string
	)

	flush := func() error {
		if len(dataLines) == 0 {
			eventName = ""
			return nil
		}
		data := strings.Join(dataLines, "\n")
		ev := eventName
		dataLines = nil
		eventName = ""
		return onEvent(ev, data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if ferr := flush(); ferr != nil {
				return unwrapDone(ferr)
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}

		if eof {
			return unwrapDone(flush())
		}
	}
}

func unwrapDone(err error) error {
	if errors.Is(err, errStreamDone) {
		return nil
	}
	return err
}
