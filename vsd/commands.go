package vsd

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"gopkg.in/yaml.v3"

	"github.com/yamitzky/msbin-go/lebin"
)

// Command types understood by the decoder. Types 0 to 7 select a single bit
// of the byte at the command offset.
const (
	CmdBitLast     = 7
	CmdByte        = 8
	CmdDouble      = 9
	CmdBlockOffset = 11
	CmdString      = 12
	CmdBlockRef    = 21
	CmdShort       = 25
	CmdInt         = 26
)

// String commands always start this far into the content.
const stringStart = 8

//go:embed commands.yaml
var defaultCommands []byte

// CommandDefinition describes one value stored at a fixed content offset.
type CommandDefinition struct {
	Name   string `yaml:"name"`
	Type   int    `yaml:"type"`
	Offset int    `yaml:"offset"`
}

// ChunkType names a chunk type and lists its commands.
type ChunkType struct {
	Type     uint32              `yaml:"type"`
	Name     string              `yaml:"name"`
	Commands []CommandDefinition `yaml:"commands"`
}

// CommandTable maps chunk types to their command definitions. It is not
// modified after loading.
type CommandTable struct {
	Types map[uint32]ChunkType
}

// Command is a decoded command value. Value is bool, uint8, float64,
// string, int16, int32 or uint32 depending on the type, or nil for types
// the decoder does not know.
type Command struct {
	Name  string
	Type  int
	Value any
}

func (c Command) String() string {
	return fmt.Sprintf("%s=%v", c.Name, c.Value)
}

// DefaultCommandTable returns the embedded command table.
func DefaultCommandTable() (*CommandTable, error) {
	return ParseCommandTable(defaultCommands)
}

// LoadCommandTable reads a command table from a YAML file.
func LoadCommandTable(path string) (*CommandTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := ParseCommandTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseCommandTable decodes a YAML command table.
func ParseCommandTable(data []byte) (*CommandTable, error) {
	var doc struct {
		Chunks []ChunkType `yaml:"chunks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("command table: %w", err)
	}
	t := &CommandTable{Types: make(map[uint32]ChunkType, len(doc.Chunks))}
	for _, ct := range doc.Chunks {
		if _, dup := t.Types[ct.Type]; dup {
			return nil, fmt.Errorf("command table: chunk type 0x%02x listed twice", ct.Type)
		}
		for _, def := range ct.Commands {
			if def.Offset < 0 {
				return nil, fmt.Errorf("command table: %s.%s has negative offset", ct.Name, def.Name)
			}
		}
		t.Types[ct.Type] = ct
	}
	return t, nil
}

func (t *CommandTable) apply(c *Chunk, logger *slog.Logger) []Command {
	if t == nil {
		return nil
	}
	ct, ok := t.Types[c.Header.Type]
	if !ok || len(ct.Commands) == 0 {
		return nil
	}
	cmds := make([]Command, 0, len(ct.Commands))
	for _, def := range ct.Commands {
		v, err := decodeCommand(def, c)
		if err != nil {
			logger.Debug("skipping chunk command",
				"chunk", ct.Name, "command", def.Name, "offset", def.Offset,
				"length", len(c.Content), "error", err)
			continue
		}
		cmds = append(cmds, Command{Name: def.Name, Type: def.Type, Value: v})
	}
	return cmds
}

func decodeCommand(def CommandDefinition, c *Chunk) (any, error) {
	content := c.Content
	switch {
	case def.Type >= 0 && def.Type <= CmdBitLast:
		b, err := lebin.Uint8(content, def.Offset)
		if err != nil {
			return nil, err
		}
		return b&(1<<def.Type) != 0, nil
	case def.Type == CmdByte:
		return lebin.Uint8(content, def.Offset)
	case def.Type == CmdDouble:
		return lebin.Float64(content, def.Offset)
	case def.Type == CmdShort:
		return lebin.Int16(content, def.Offset)
	case def.Type == CmdInt:
		return lebin.Int32(content, def.Offset)
	case def.Type == CmdBlockOffset || def.Type == CmdBlockRef:
		return lebin.Uint32(content, def.Offset)
	case def.Type == CmdString:
		return decodeString(content, c.Header.Charset())
	}
	return nil, nil
}

// decodeString reads the NUL-terminated string that starts 8 bytes into the
// content. A missing terminator runs to the end of the content.
func decodeString(content []byte, charset string) (string, error) {
	if err := lebin.Check(content, stringStart, 0); err != nil {
		return "", err
	}
	raw := content[stringStart:]
	if charset == "utf-16le" {
		end := len(raw) &^ 1
		for i := 0; i+1 < len(raw); i += 2 {
			if raw[i] == 0 && raw[i+1] == 0 {
				end = i
				break
			}
		}
		b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw[:end])
		return string(b), err
	}
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	b, err := charmap.Windows1252.NewDecoder().Bytes(raw[:end])
	return string(b), err
}
