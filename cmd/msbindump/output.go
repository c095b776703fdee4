package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// cborMode encodes with Core Deterministic Encoding, so the same dump
// always produces the same bytes.
var cborMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.TextMarshaler = cbor.TextMarshalerTextString
	var err error
	cborMode, err = opts.EncMode()
	if err != nil {
		panic("msbindump: CBOR encoder initialization failed: " + err.Error())
	}
}

// emit writes v in the configured format. The text format calls text
// instead, since each command lays out its own listing.
func (e *env) emit(v any, text func(w io.Writer) error) error {
	switch e.cfg.Format {
	case "json":
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(e.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		b, err := cborMode.Marshal(v)
		if err != nil {
			return fmt.Errorf("cbor: %w", err)
		}
		_, err = e.stdout.Write(b)
		return err
	}
	return text(e.stdout)
}

// summarize renders a decoded value on one line, cut to width runes.
func summarize(v any, width int) string {
	if v == nil {
		return ""
	}
	s := []rune(fmt.Sprintf("%+v", v))
	if len(s) > width {
		return string(s[:width-3]) + "..."
	}
	return string(s)
}
