package parser

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"
	"unicode/utf16"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/vizbuck/pkg/models"
)

const (
	oleSector     = 512
	oleEndOfChain = 0xFFFFFFFE
	oleFreeSect   = 0xFFFFFFFF
	oleFATSect    = 0xFFFFFFFD

	// streams below this size live in the mini stream
	oleStreamCutoff = 4096
)

type xlsSheet struct {
	name string
	rows [][]string
}

func biffRecord(buf *bytes.Buffer, id uint16, data []byte) {
	_ = binary.Write(buf, binary.LittleEndian, id)
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(data)))
	buf.Write(data)
}

func biffBOF(kind uint16) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint16(b[0:], 0x0600)
	binary.LittleEndian.PutUint16(b[2:], kind)
	return b
}

// biffLabel is a LABEL record holding an uncompressed latin-1 string.
func biffLabel(row, col int, s string) []byte {
	b := make([]byte, 9, 9+len(s))
	binary.LittleEndian.PutUint16(b[0:], uint16(row))
	binary.LittleEndian.PutUint16(b[2:], uint16(col))
	binary.LittleEndian.PutUint16(b[6:], uint16(len(s)))
	return append(b, s...)
}

func biffSheetStream(rows [][]string) []byte {
	var buf bytes.Buffer
	biffRecord(&buf, 0x0809, biffBOF(0x0010))
	for r, row := range rows {
		for c, v := range row {
			if v != "" {
				biffRecord(&buf, 0x0204, biffLabel(r, c, v))
			}
		}
	}
	biffRecord(&buf, 0x000A, nil)
	return buf.Bytes()
}

// buildXLS writes a minimal BIFF8 workbook inside a single-FAT compound file.
func buildXLS(t *testing.T, sheets ...xlsSheet) []byte {
	t.Helper()

	globalsSize := 4 + 16 + 4
	for _, sh := range sheets {
		globalsSize += 4 + 8 + len(sh.name)
	}
	var streams [][]byte
	pos := globalsSize
	var globals bytes.Buffer
	biffRecord(&globals, 0x0809, biffBOF(0x0005))
	for _, sh := range sheets {
		body := biffSheetStream(sh.rows)
		rec := make([]byte, 8, 8+len(sh.name))
		binary.LittleEndian.PutUint32(rec[0:], uint32(pos))
		rec[6] = byte(len(sh.name))
		biffRecord(&globals, 0x0085, append(rec, sh.name...))
		streams = append(streams, body)
		pos += len(body)
	}
	biffRecord(&globals, 0x000A, nil)

	workbook := globals.Bytes()
	for _, s := range streams {
		workbook = append(workbook, s...)
	}
	size := oleStreamCutoff
	for size < len(workbook) {
		size += oleSector
	}
	if size > oleSector*126 {
		t.Fatal("workbook too large for a single FAT sector")
	}
	workbook = append(workbook, make([]byte, size-len(workbook))...)
	nStream := size / oleSector

	le := binary.LittleEndian
	header := make([]byte, oleSector)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(header[24:], 0x003E)
	le.PutUint16(header[26:], 0x0003)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1) // FAT sectors
	le.PutUint32(header[48:], 1) // directory start
	le.PutUint32(header[56:], oleStreamCutoff)
	le.PutUint32(header[60:], oleEndOfChain)
	le.PutUint32(header[68:], oleEndOfChain)
	for i := 0; i < 109; i++ {
		le.PutUint32(header[76+4*i:], oleFreeSect)
	}
	le.PutUint32(header[76:], 0)

	fat := make([]byte, oleSector)
	for i := 0; i < oleSector/4; i++ {
		le.PutUint32(fat[4*i:], oleFreeSect)
	}
	le.PutUint32(fat[0:], oleFATSect)
	le.PutUint32(fat[4:], oleEndOfChain)
	for i := 0; i < nStream; i++ {
		next := uint32(2 + i + 1)
		if i == nStream-1 {
			next = oleEndOfChain
		}
		le.PutUint32(fat[4*(2+i):], next)
	}

	dir := make([]byte, oleSector)
	dirEntry(dir[0:128], "Root Entry", 5, oleEndOfChain, 0)
	dirEntry(dir[128:256], "Workbook", 2, 2, uint32(size))

	out := append(header, fat...)
	out = append(out, dir...)
	return append(out, workbook...)
}

func dirEntry(b []byte, name string, kind byte, start, size uint32) {
	le := binary.LittleEndian
	for i, u := range utf16.Encode([]rune(name)) {
		le.PutUint16(b[2*i:], u)
	}
	le.PutUint16(b[64:], uint16(2*(len(name)+1)))
	b[66] = kind
	le.PutUint32(b[68:], oleFreeSect)
	le.PutUint32(b[72:], oleFreeSect)
	le.PutUint32(b[76:], oleFreeSect)
	le.PutUint32(b[116:], start)
	le.PutUint32(b[120:], size)
}

func TestReadGridXLSFirstSheetOnly(t *testing.T) {
	data := buildXLS(t,
		xlsSheet{name: "Statement", rows: [][]string{
			{"Date", "Narration", "Withdrawal", "Deposit"},
			{"05/02/2024", "SWIGGY", "450"},
			nil,
			{"07/02/2024", "ACME PAYROLL", "", "80000"},
		}},
		xlsSheet{name: "Notes", rows: [][]string{
			{"09/02/2024", "SHOULD NOT APPEAR", "999"},
		}},
	)

	if got := DetectFormat(data, "statement.xls"); got != FormatXLS {
		t.Fatalf("expected xls format, got %s", got)
	}
	grid, err := ReadGrid(data, FormatXLS)
	if err != nil {
		t.Fatalf("ReadGrid failed: %v", err)
	}
	if len(grid) != 4 {
		t.Fatalf("expected 4 rows from the first sheet, got %d: %q", len(grid), grid)
	}
	if len(grid[2]) != 0 {
		t.Errorf("expected the gap row to be empty, got %q", grid[2])
	}
	if want := []string{"07/02/2024", "ACME PAYROLL", "", "80000"}; !slices.Equal(grid[3], want) {
		t.Errorf("expected %q, got %q", want, grid[3])
	}

	st, err := New(log.Default()).ProcessBytes(data, "statement.xls")
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(st.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(st.Records))
	}
	assertRecord(t, st.Records[0], "2024-02-05", "SWIGGY", 450, models.Debit)
	assertRecord(t, st.Records[1], "2024-02-07", "ACME PAYROLL", 80000, models.Credit)
}
