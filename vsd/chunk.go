package vsd

import (
	"fmt"
	"strings"
)

// Chunk is one decoded chunk: its header, content, the optional trailer and
// separator, and any commands decoded from the content.
type Chunk struct {
	Header    ChunkHeader
	Trailer   []byte
	Separator []byte
	Content   []byte
	Commands  []Command
}

// OnDiskSize returns the number of bytes the chunk occupies in its stream.
func (c *Chunk) OnDiskSize() int {
	size := c.Header.SizeInBytes() + len(c.Content)
	if c.Trailer != nil {
		size += TrailerSize
	}
	if c.Separator != nil {
		size += SeparatorSize
	}
	return size
}

// Name returns the chunk type name from the command table, or a hex code.
func (c *Chunk) Name(table *CommandTable) string {
	if table != nil {
		if def, ok := table.Types[c.Header.Type]; ok && def.Name != "" {
			return def.Name
		}
	}
	return fmt.Sprintf("0x%02x", c.Header.Type)
}

// Command returns the decoded command with the given name.
func (c *Chunk) Command(name string) (Command, bool) {
	for _, cmd := range c.Commands {
		if strings.EqualFold(cmd.Name, name) {
			return cmd, true
		}
	}
	return Command{}, false
}
