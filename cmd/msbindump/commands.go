package main

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/yamitzky/msbin-go/biff"
	"github.com/yamitzky/msbin-go/escher"
	"github.com/yamitzky/msbin-go/formula"
	"github.com/yamitzky/msbin-go/hslf"
	"github.com/yamitzky/msbin-go/msg"
	"github.com/yamitzky/msbin-go/record"
	"github.com/yamitzky/msbin-go/vsd"
)

func registryByName(name string) (*record.Registry, error) {
	switch name {
	case "hslf", "ppt":
		return hslf.Registry, nil
	case "escher", "drawing":
		return escher.Registry, nil
	}
	return nil, fmt.Errorf("unknown registry %q (want hslf or escher)", name)
}

// inputArg returns the single positional argument of a subcommand.
func inputArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", usagef("expected one input, got %d", len(args))
	}
	return args[0], nil
}

// records

type recordView struct {
	Offset      int          `json:"offset" yaml:"offset"`
	Type        uint16       `json:"type" yaml:"type"`
	Name        string       `json:"name" yaml:"name"`
	Version     uint8        `json:"version" yaml:"version"`
	Instance    uint16       `json:"instance" yaml:"instance"`
	Size        uint32       `json:"size" yaml:"size"`
	Value       any          `json:"value,omitempty" yaml:"value,omitempty"`
	Fingerprint string       `json:"blake3,omitempty" yaml:"blake3,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	Children    []recordView `json:"children,omitempty" yaml:"children,omitempty"`
}

func recordViews(recs []record.Record) []recordView {
	out := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		h := rec.RecordHeader()
		v := recordView{
			Offset:   rec.RecordOffset(),
			Type:     h.Type,
			Version:  h.Version,
			Instance: h.Instance,
			Size:     h.Size,
		}
		switch r := rec.(type) {
		case *record.Container:
			v.Name = r.Name
			v.Children = recordViews(r.Children)
		case *record.Atom:
			v.Name = r.Name
			if r.Err != nil {
				v.Error = r.Err.Error()
			}
			if u, ok := r.Value.(*record.Unknown); ok {
				sum := u.Fingerprint()
				v.Fingerprint = hex.EncodeToString(sum[:])
			} else {
				v.Value = r.Value
			}
		}
		out = append(out, v)
	}
	return out
}

func writeRecordViews(w io.Writer, views []recordView, depth int) {
	for _, v := range views {
		fmt.Fprintf(w, "%8d %s%s 0x%04x ver=%d inst=%d size=%d",
			v.Offset, strings.Repeat("  ", depth), v.Name, v.Type, v.Version, v.Instance, v.Size)
		switch {
		case v.Error != "":
			fmt.Fprintf(w, " error: %s", v.Error)
		case v.Fingerprint != "":
			fmt.Fprintf(w, " blake3:%s", v.Fingerprint[:16])
		case v.Value != nil:
			fmt.Fprintf(w, " %s", summarize(v.Value, 96))
		}
		fmt.Fprintln(w)
		writeRecordViews(w, v.Children, depth+1)
	}
}

func (e *env) parseRecords(data []byte, registry string, offset, length, maxDepth int, strict bool) ([]record.Record, error) {
	reg, err := registryByName(registry)
	if err != nil {
		return nil, usagef("%v", err)
	}
	if length == 0 {
		length = len(data) - offset
	}
	p := &record.Parser{Registry: reg, MaxDepth: maxDepth, Logger: e.logger, Strict: strict}
	return p.Parse(data, offset, length)
}

func runRecords(e *env, args []string) error {
	fs := e.newFlagSet("records", "<input>")
	registry := fs.String("registry", e.cfg.Registry, "record registry: hslf or escher")
	offset := fs.Int("offset", 0, "offset of the first record")
	length := fs.Int("length", 0, "number of bytes to parse; 0 means to the end")
	maxDepth := fs.Int("max-depth", e.cfg.MaxDepth, "maximum container nesting")
	strict := fs.Bool("strict", false, "stop at the first record that fails to decode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := inputArg(fs.Args())
	if err != nil {
		return err
	}
	data, err := e.readInput(path)
	if err != nil {
		return err
	}
	recs, perr := e.parseRecords(data, *registry, *offset, *length, *maxDepth, *strict)
	var ue *usageError
	if errors.As(perr, &ue) {
		return perr
	}
	views := recordViews(recs)
	if err := e.emit(views, func(w io.Writer) error {
		writeRecordViews(w, views, 0)
		return nil
	}); err != nil {
		return err
	}
	return perr
}

// biff

type biffView struct {
	Sid   uint16 `json:"sid" yaml:"sid"`
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

func biffName(rec biff.Record) string {
	if rec.Sid() == biff.SidNone {
		return strings.TrimPrefix(fmt.Sprintf("%T", rec), "*biff.")
	}
	return biff.RecordName(rec.Sid())
}

// biffRecords decodes buf, optionally through the missing-record
// synthesizer. Records before a failure are returned with the error.
func biffRecords(buf []byte, dense bool) ([]biff.Record, error) {
	var recs []biff.Record
	var state *biff.MissingRecordState
	if dense {
		state = biff.NewMissingRecordState()
	}
	for rec, err := range biff.Records(buf) {
		if err != nil {
			return recs, err
		}
		if state == nil {
			recs = append(recs, rec)
			continue
		}
		recs = append(recs, state.Process(rec)...)
	}
	return recs, nil
}

func runBiff(e *env, args []string) error {
	fs := e.newFlagSet("biff", "<input>")
	dense := fs.Bool("dense", false, "insert placeholders for missing rows and cells")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := inputArg(fs.Args())
	if err != nil {
		return err
	}
	data, err := e.readInput(path)
	if err != nil {
		return err
	}
	recs, perr := biffRecords(data, *dense)
	views := make([]biffView, len(recs))
	for i, rec := range recs {
		views[i] = biffView{Sid: rec.Sid(), Name: biffName(rec), Value: rec}
	}
	if err := e.emit(views, func(w io.Writer) error {
		for _, v := range views {
			fmt.Fprintf(w, "%-14s %s\n", v.Name, summarize(v.Value, 100))
		}
		return nil
	}); err != nil {
		return err
	}
	return perr
}

// chunks

type commandView struct {
	Name  string `json:"name" yaml:"name"`
	Type  int    `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

type chunkView struct {
	Offset    int           `json:"offset" yaml:"offset"`
	Kind      string        `json:"header" yaml:"header"`
	Type      uint32        `json:"type" yaml:"type"`
	Name      string        `json:"name" yaml:"name"`
	ID        uint32        `json:"id" yaml:"id"`
	Length    uint32        `json:"length" yaml:"length"`
	Trailer   bool          `json:"trailer" yaml:"trailer"`
	Separator bool          `json:"separator" yaml:"separator"`
	Commands  []commandView `json:"commands,omitempty" yaml:"commands,omitempty"`
}

type chunkOptions struct {
	version    int
	compressed bool
	legacy     bool
	commands   string
}

func (e *env) parseChunks(data []byte, o chunkOptions) ([]*vsd.Chunk, *vsd.ChunkFactory, error) {
	opts := []vsd.FactoryOption{vsd.WithLogger(e.logger)}
	if o.legacy {
		opts = append(opts, vsd.WithLegacyHeaders())
	}
	if o.commands != "" {
		table, err := vsd.LoadCommandTable(o.commands)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, vsd.WithCommandTable(table))
	}
	f, err := vsd.NewChunkFactory(o.version, opts...)
	if err != nil {
		return nil, nil, usagef("%v", err)
	}
	if o.compressed {
		data, err = vsd.Decompress(bytes.NewReader(data), e.cfg.MaxInput)
		if err != nil {
			return nil, nil, err
		}
	}
	chunks, err := vsd.ParseChunks(f, data)
	return chunks, f, err
}

func runChunks(e *env, args []string) error {
	fs := e.newFlagSet("chunks", "<input>")
	var o chunkOptions
	fs.IntVar(&o.version, "version", e.cfg.VisioVersion, "Visio file version")
	fs.BoolVar(&o.compressed, "compressed", false, "the input is LZ compressed")
	fs.BoolVar(&o.legacy, "legacy", false, "allow versions 4 and 5 headers")
	fs.StringVar(&o.commands, "commands", e.cfg.CommandTable, "YAML command table replacing the built-in one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := inputArg(fs.Args())
	if err != nil {
		return err
	}
	data, err := e.readInput(path)
	if err != nil {
		return err
	}
	chunks, f, perr := e.parseChunks(data, o)
	var ue *usageError
	if errors.As(perr, &ue) || f == nil {
		return perr
	}
	views := make([]chunkView, 0, len(chunks))
	pos := 0
	for _, c := range chunks {
		v := chunkView{
			Offset:    pos,
			Kind:      c.Header.Kind.String(),
			Type:      c.Header.Type,
			Name:      c.Name(f.CommandTable()),
			ID:        c.Header.ID,
			Length:    c.Header.Length,
			Trailer:   c.Trailer != nil,
			Separator: c.Separator != nil,
		}
		for _, cmd := range c.Commands {
			v.Commands = append(v.Commands, commandView{Name: cmd.Name, Type: cmd.Type, Value: cmd.Value})
		}
		views = append(views, v)
		pos += max(c.OnDiskSize(), 1)
	}
	if err := e.emit(views, func(w io.Writer) error {
		for _, v := range views {
			fmt.Fprintf(w, "%8d %-20s type=0x%02x id=%d length=%d", v.Offset, v.Name, v.Type, v.ID, v.Length)
			if v.Trailer {
				fmt.Fprint(w, " trailer")
			}
			if v.Separator {
				fmt.Fprint(w, " separator")
			}
			fmt.Fprintln(w)
			for _, cmd := range v.Commands {
				fmt.Fprintf(w, "         %s=%v\n", cmd.Name, cmd.Value)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return perr
}

// count

type countView struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func histogram(counts map[string]int) []countView {
	out := make([]countView, 0, len(counts))
	for name, n := range counts {
		out = append(out, countView{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b countView) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Name, b.Name))
	})
	return out
}

func runCount(e *env, args []string) error {
	fs := e.newFlagSet("count", "<input>")
	mode := fs.String("mode", "records", "what to count: records, biff or chunks")
	version := fs.Int("version", e.cfg.VisioVersion, "Visio file version, for chunks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := inputArg(fs.Args())
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	var perr error
	switch *mode {
	case "records", "biff", "chunks":
	default:
		return usagef("invalid mode %q", *mode)
	}
	data, err := e.readInput(path)
	if err != nil {
		return err
	}
	switch *mode {
	case "records":
		var recs []record.Record
		recs, perr = e.parseRecords(data, e.cfg.Registry, 0, 0, e.cfg.MaxDepth, false)
		record.Walk(recs, func(rec record.Record, _ int) error {
			h := rec.RecordHeader()
			name := "Unknown"
			switch r := rec.(type) {
			case *record.Atom:
				name = r.Name
			case *record.Container:
				name = r.Name
			}
			counts[fmt.Sprintf("%s (0x%04x)", name, h.Type)]++
			return nil
		})
	case "biff":
		var recs []biff.Record
		recs, perr = biffRecords(data, false)
		for _, rec := range recs {
			counts[biffName(rec)]++
		}
	case "chunks":
		var chunks []*vsd.Chunk
		var f *vsd.ChunkFactory
		chunks, f, perr = e.parseChunks(data, chunkOptions{version: *version, commands: e.cfg.CommandTable})
		if f == nil {
			return perr
		}
		for _, c := range chunks {
			counts[c.Name(f.CommandTable())]++
		}
	}
	views := histogram(counts)
	if err := e.emit(views, func(w io.Writer) error {
		for _, v := range views {
			fmt.Fprintf(w, "%8d %s\n", v.Count, v.Name)
		}
		return nil
	}); err != nil {
		return err
	}
	return perr
}

// eval

type evalView struct {
	Formula string `json:"formula" yaml:"formula"`
	Cell    string `json:"cell" yaml:"cell"`
	Kind    string `json:"kind" yaml:"kind"`
	Value   string `json:"value" yaml:"value"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// gridFromJSON reads rows of cells such as [[1, "a"], [true, "#N/A"]].
// Strings that spell an error code become error values.
func gridFromJSON(data []byte) (formula.MemoryGrid, error) {
	var rows [][]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing grid: %w", err)
	}
	for _, row := range rows {
		for i, x := range row {
			if s, ok := x.(string); ok {
				if code, ok := formula.ErrorCodeFromText(s); ok {
					row[i] = code
				}
			}
		}
	}
	return formula.GridFromRows(rows...), nil
}

func runEval(e *env, args []string) error {
	fs := e.newFlagSet("eval", "<formula>...")
	gridPath := fs.String("grid", "", "JSON file of cell rows, starting at A1")
	biffPath := fs.String("biff", "", "BIFF workbook stream whose cell values are used")
	sheet := fs.Int("sheet", 0, "worksheet index in the --biff stream")
	at := fs.String("at", "A1", "cell the formulas are entered in")
	date1904 := fs.Bool("date1904", false, "use the 1904 date system")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("expected at least one formula")
	}
	if *gridPath != "" && *biffPath != "" {
		return usagef("--grid and --biff are mutually exclusive")
	}
	origin, err := formula.ParseCellName(*at)
	if err != nil {
		return usagef("invalid --at: %v", err)
	}

	ev := formula.NewEvaluator(formula.MemoryGrid{})
	ev.Logger = e.logger
	switch {
	case *gridPath != "":
		data, err := e.readInput(*gridPath)
		if err != nil {
			return err
		}
		g, err := gridFromJSON(data)
		if err != nil {
			return err
		}
		ev.Grid = g
	case *biffPath != "":
		data, err := e.readInput(*biffPath)
		if err != nil {
			return err
		}
		wb, err := biff.LoadWorkbook(data)
		if err != nil {
			return err
		}
		s, err := wb.Sheet(*sheet)
		if err != nil {
			return err
		}
		ev.Grid = s.Values
		ev.DateMode = s.Datemode
	}
	if *date1904 {
		ev.DateMode = formula.Date1904
	}

	views := make([]evalView, 0, fs.NArg())
	failed := 0
	for _, text := range fs.Args() {
		v := evalView{Formula: text, Cell: origin.String()}
		val, err := ev.EvaluateText(text, origin)
		if err != nil {
			v.Error = err.Error()
			failed++
		} else {
			v.Kind = val.Kind.String()
			v.Value = val.String()
		}
		views = append(views, v)
	}
	if err := e.emit(views, func(w io.Writer) error {
		for _, v := range views {
			if v.Error != "" {
				fmt.Fprintf(w, "%s\terror: %s\n", v.Formula, v.Error)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\n", v.Formula, v.Value)
		}
		return nil
	}); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d formulas failed", failed, len(views))
	}
	return nil
}

// recalc

type recalcView struct {
	Sheet    int    `json:"sheet" yaml:"sheet"`
	Cell     string `json:"cell" yaml:"cell"`
	Cached   string `json:"cached" yaml:"cached"`
	Computed string `json:"computed" yaml:"computed"`
	Match    bool   `json:"match" yaml:"match"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runRecalc(e *env, args []string) error {
	fs := e.newFlagSet("recalc", "<input>")
	sheet := fs.Int("sheet", -1, "worksheet index; -1 means every sheet")
	all := fs.Bool("all", false, "list matching formulas too")
	check := fs.Bool("check", false, "fail when a formula disagrees with its cached value")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := inputArg(fs.Args())
	if err != nil {
		return err
	}
	data, err := e.readInput(path)
	if err != nil {
		return err
	}
	wb, err := biff.LoadWorkbook(data)
	if err != nil {
		return err
	}
	sheets := wb.Sheets
	if *sheet >= 0 {
		s, err := wb.Sheet(*sheet)
		if err != nil {
			return err
		}
		sheets = []*biff.Sheet{s}
	}

	var views []recalcView
	total, mismatched := 0, 0
	for _, s := range sheets {
		for _, r := range s.Recalculate(e.logger) {
			total++
			ok := r.Matches()
			if !ok {
				mismatched++
			}
			if ok && !*all {
				continue
			}
			v := recalcView{Sheet: s.Index, Cell: r.Cell.String(), Cached: r.Cached.String(), Match: ok}
			if r.Err != nil {
				v.Error = r.Err.Error()
			} else {
				v.Computed = r.Computed.String()
			}
			views = append(views, v)
		}
	}
	if err := e.emit(views, func(w io.Writer) error {
		for _, v := range views {
			status := "ok"
			if !v.Match {
				status = "MISMATCH"
			}
			if v.Error != "" {
				fmt.Fprintf(w, "%d!%s\tcached=%s\terror: %s\n", v.Sheet, v.Cell, v.Cached, v.Error)
				continue
			}
			fmt.Fprintf(w, "%d!%s\tcached=%s\tcomputed=%s\t%s\n", v.Sheet, v.Cell, v.Cached, v.Computed, status)
		}
		fmt.Fprintf(w, "%d formulas, %d mismatched\n", total, mismatched)
		return nil
	}); err != nil {
		return err
	}
	if *check && mismatched > 0 {
		return fmt.Errorf("%d of %d formulas disagree with their cached values", mismatched, total)
	}
	return nil
}

// msg

type recipientView struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

type attachmentView struct {
	Filename string   `json:"filename" yaml:"filename"`
	MimeType string   `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Size     int      `json:"size" yaml:"size"`
	Digest   string   `json:"blake3,omitempty" yaml:"blake3,omitempty"`
	Embedded *msgView `json:"embedded,omitempty" yaml:"embedded,omitempty"`
}

type msgView struct {
	Subject     string           `json:"subject" yaml:"subject"`
	From        string           `json:"from,omitempty" yaml:"from,omitempty"`
	To          string           `json:"to,omitempty" yaml:"to,omitempty"`
	CC          string           `json:"cc,omitempty" yaml:"cc,omitempty"`
	Date        string           `json:"date,omitempty" yaml:"date,omitempty"`
	Class       string           `json:"class,omitempty" yaml:"class,omitempty"`
	Properties  int              `json:"properties" yaml:"properties"`
	Recipients  []recipientView  `json:"recipients,omitempty" yaml:"recipients,omitempty"`
	Attachments []attachmentView `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	Named       []string         `json:"named,omitempty" yaml:"named,omitempty"`
}

func newMsgView(m *msg.Message) *msgView {
	v := &msgView{
		Subject:    m.Subject(),
		From:       m.DisplayFrom(),
		To:         m.DisplayTo(),
		CC:         m.DisplayCC(),
		Class:      m.MessageClass(),
		Properties: len(m.Main.Properties()),
	}
	if t, ok := m.Date(); ok {
		v.Date = t.UTC().Format(time.RFC3339)
	}
	for _, r := range m.Recipients {
		name, _ := r.DisplayName()
		email, _ := r.Email()
		v.Recipients = append(v.Recipients, recipientView{Name: name, Email: email})
	}
	for _, a := range m.Attachments {
		av := attachmentView{Filename: a.Filename(), MimeType: a.MimeType(), Size: len(a.Data())}
		if a.Data() != nil {
			sum := a.Digest()
			av.Digest = hex.EncodeToString(sum[:])
		}
		if a.Embedded != nil {
			av.Embedded = newMsgView(a.Embedded)
		}
		v.Attachments = append(v.Attachments, av)
	}
	if m.NameID != nil {
		for _, n := range m.NameID.Named {
			v.Named = append(v.Named, n.String())
		}
	}
	return v
}

func writeMsgView(w io.Writer, v *msgView, indent string) {
	fmt.Fprintf(w, "%sSubject: %s\n", indent, v.Subject)
	if v.From != "" {
		fmt.Fprintf(w, "%sFrom: %s\n", indent, v.From)
	}
	if v.Date != "" {
		fmt.Fprintf(w, "%sDate: %s\n", indent, v.Date)
	}
	for _, r := range v.Recipients {
		fmt.Fprintf(w, "%sRecipient: %s <%s>\n", indent, r.Name, r.Email)
	}
	for _, a := range v.Attachments {
		fmt.Fprintf(w, "%sAttachment: %s (%d bytes)\n", indent, a.Filename, a.Size)
		if a.Embedded != nil {
			writeMsgView(w, a.Embedded, indent+"  ")
		}
	}
	fmt.Fprintf(w, "%sProperties: %d, named: %d\n", indent, v.Properties, len(v.Named))
}

// readStreams loads every file under dir as a message stream, with paths
// relative to dir.
func readStreams(dir string) ([]msg.Entry, error) {
	var entries []msg.Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, msg.Entry{Path: filepath.ToSlash(rel), Data: data})
		return nil
	})
	return entries, err
}

func runMsg(e *env, args []string) error {
	fs := e.newFlagSet("msg", "<directory>")
	codepage := fs.Int("codepage", 0, "codepage of 8-bit strings; 0 uses the message's own")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dir, err := inputArg(fs.Args())
	if err != nil {
		return err
	}
	if dir, err = expandHome(dir); err != nil {
		return err
	}
	entries, err := readStreams(dir)
	if err != nil {
		return err
	}
	opts := &msg.Options{Logger: e.logger}
	if *codepage != 0 {
		opts.Encoding = biff.EncodingFromCodepage(*codepage)
	}
	m, perr := msg.Parse(entries, opts)
	v := newMsgView(m)
	if err := e.emit(v, func(w io.Writer) error {
		writeMsgView(w, v, "")
		return nil
	}); err != nil {
		return err
	}
	return perr
}
