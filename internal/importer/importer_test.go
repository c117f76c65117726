package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readChase(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/chase_checking.csv")
	require.NoError(t, err)
	return string(data)
}

func TestChaseParser_Parse(t *testing.T) {
	p := &ChaseParser{}
	rows, err := p.Parse(strings.NewReader(readChase(t)))
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	// First: GITHUB subscription
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", rows[0].Description)
	assert.Equal(t, "-4.00", rows[0].Amount.Decimal.StringFixed(2))
	assert.Equal(t, "2025-01-03", rows[0].Date)
	assert.Nil(t, rows[0].IsTransfer)

	// Fourth: ACME income (positive)
	assert.Equal(t, "ACME CONSULTING INVOICE 1042", rows[3].Description)
	assert.True(t, rows[3].Amount.Decimal.IsPositive())
	assert.Equal(t, "3500.00", rows[3].Amount.Decimal.StringFixed(2))

	// Account transfers are flagged.
	require.NotNil(t, rows[4].IsTransfer)
	assert.True(t, *rows[4].IsTransfer)

	assert.Equal(t, "2025-01-22", rows[5].Date)
}

func TestChaseParser_NegativePositiveAmounts(t *testing.T) {
	p := &ChaseParser{}
	rows, err := p.Parse(strings.NewReader(readChase(t)))
	require.NoError(t, err)

	for _, r := range rows {
		require.True(t, r.Amount.Valid)
		if r.Description == "ACME CONSULTING INVOICE 1042" {
			assert.True(t, r.Amount.Decimal.IsPositive())
		} else {
			assert.True(t, r.Amount.Decimal.IsNegative(), "expected negative for %s", r.Description)
		}
	}
}

func TestChaseParser_EmptyFile(t *testing.T) {
	p := &ChaseParser{}
	rows, err := p.Parse(strings.NewReader("Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestChaseParser_BadValuesPassThrough(t *testing.T) {
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT, NOTADATE ,desc,NOTANUMBER,ACH_DEBIT,100.00,\n"
	p := &ChaseParser{}
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NOTADATE", rows[0].Date)
	assert.False(t, rows[0].Amount.Valid)
}

func TestChaseParser_WrongFieldCount(t *testing.T) {
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.Error(t, err)
}

func TestChaseParser_Format(t *testing.T) {
	p := &ChaseParser{}
	assert.Equal(t, "chase", p.Format())
}

func TestStandardParser_Parse(t *testing.T) {
	f, err := os.Open("testdata/standard.csv")
	require.NoError(t, err)
	defer f.Close()

	rows, err := (&StandardParser{}).Parse(f)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "2024-03-01", rows[0].Date)
	assert.Equal(t, "Supermercado Líder", rows[0].Description)
	assert.Equal(t, "-45.30", rows[0].Amount.Decimal.StringFixed(2))
	assert.Empty(t, rows[0].Category)
	assert.Nil(t, rows[0].IsTransfer)

	assert.Equal(t, "Transfers", rows[1].Category)
	require.NotNil(t, rows[1].IsTransfer)
	assert.True(t, *rows[1].IsTransfer)

	require.NotNil(t, rows[2].IsTransfer)
	assert.False(t, *rows[2].IsTransfer)
	assert.Equal(t, "2024-03-03 09:15:00", rows[2].Date, "canonicalization happens at ingest")

	assert.Equal(t, "02/03/2024", rows[3].Date)
	assert.False(t, rows[3].Amount.Valid)
}

func TestStandardParser_EnglishHeadersShortRows(t *testing.T) {
	csv := "Date,Description,Amount,Note\n2024-01-01,Coffee,-3.5\n2024-01-02,Book,-12,gift\n"
	rows, err := (&StandardParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].UserNote)
	assert.Equal(t, "gift", rows[1].UserNote)
}

func TestStandardParser_MissingColumn(t *testing.T) {
	_, err := (&StandardParser{}).Parse(strings.NewReader("date,description\n2024-01-01,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing amount column")
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.NotNil(t, r.Get("Chase"))
	assert.NotNil(t, r.Get("CHASE"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.Panics(t, func() { r.Register(&ChaseParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"chase", "standard"}, r.Formats())
}

func TestRegistry_Detect(t *testing.T) {
	r := DefaultRegistry()

	p, err := r.Detect([]byte(readChase(t)))
	require.NoError(t, err)
	assert.Equal(t, "chase", p.Format())

	p, err = r.Detect([]byte("fecha,detalle,monto\n"))
	require.NoError(t, err)
	assert.Equal(t, "standard", p.Format())

	_, err = r.Detect([]byte("foo,bar\n"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRegistry_ParseFile(t *testing.T) {
	r := DefaultRegistry()

	rows, p, err := r.ParseFile("testdata/standard.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "standard", p.Format())
	assert.Len(t, rows, 4)

	_, _, err = r.ParseFile("testdata/standard.csv", "ofx")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, _, err = r.ParseFile("testdata/missing.csv", "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BANK2.CSV"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "BANK2.CSV", files[0].Name)
	assert.Equal(t, "bank.csv", files[1].Name)
	assert.Equal(t, int64(4), files[1].Size)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	processed := filepath.Join(dir, "processed")
	require.NoError(t, os.MkdirAll(processed, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "import"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	assert.NoFileExists(t, filepath.Join(dir, "bank.csv"))
	assert.FileExists(t, filepath.Join(dir, "processed", "bank.csv"))
}

func TestMarkProcessed_MissingFile(t *testing.T) {
	err := MarkProcessed(t.TempDir(), "nope.csv")
	assert.Error(t, err)
}
