package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

var (
	cfbSignature  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipSignature  = []byte("PK\x03\x04")
	zstdSignature = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipSignature = []byte{0x1F, 0x8B}
)

// containerHints explains why a container cannot be dumped as it is.
var containerHints = map[string]string{
	"cfb":  "OLE2 compound file: extract a stream (Workbook, PowerPoint Document, VisioDocument) first",
	"xlsx": "Excel 2007 xlsx file: OOXML is not supported",
	"xlsb": "Excel 2007 xlsb file: not a BIFF stream",
	"pptx": "PowerPoint pptx file: OOXML is not supported",
	"docx": "Word docx file: OOXML is not supported",
	"vsdx": "Visio vsdx file: OOXML is not supported",
	"ods":  "OpenOffice.org ODS file: not supported",
	"zip":  "unknown ZIP file",
}

// inspectFormat names the container content is wrapped in, or returns ""
// for a bare stream.
func inspectFormat(content []byte) string {
	if bytes.HasPrefix(content, cfbSignature) {
		return "cfb"
	}
	if !bytes.HasPrefix(content, zipSignature) {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "zip"
	}
	// Some writers use backslashes and odd case in member names.
	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[strings.ToLower(strings.ReplaceAll(f.Name, "\\", "/"))] = true
	}
	switch {
	case names["xl/workbook.xml"]:
		return "xlsx"
	case names["xl/workbook.bin"]:
		return "xlsb"
	case names["ppt/presentation.xml"]:
		return "pptx"
	case names["word/document.xml"]:
		return "docx"
	case names["visio/document.xml"]:
		return "vsdx"
	case names["content.xml"]:
		return "ods"
	}
	return "zip"
}

// decompress unwraps zstd and gzip input. Anything else is returned as is.
func decompress(data []byte, limit int) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdSignature):
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(limit)))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	case bytes.HasPrefix(data, gzipSignature):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if len(out) > limit {
			return nil, fmt.Errorf("gzip: input expands past %d bytes", limit)
		}
		return out, nil
	}
	return data, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(path, "~", home, 1), nil
}

// readInput reads a stream from path, or from stdin for "-", unwraps
// compression and rejects containers.
func (e *env) readInput(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(e.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		if path, err = expandHome(path); err != nil {
			return nil, err
		}
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	if data, err = decompress(data, e.cfg.MaxInput); err != nil {
		return nil, err
	}
	if kind := inspectFormat(data); kind != "" {
		return nil, fmt.Errorf("%s: %s", path, containerHints[kind])
	}
	e.logger.Debug("input loaded", "path", path, "bytes", len(data))
	return data, nil
}
