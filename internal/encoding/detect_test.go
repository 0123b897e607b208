package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/zakati/internal/encoding"
)

func readAll(t *testing.T, input []byte, hint string) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input), hint)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "التاريخ;الأصل;النوع;الكمية\n2024-01-15;ذهب عيار 21;إضافة;12,5\n"
	assert.Equal(t, input, readAll(t, []byte(input), "windows-1256"))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,asset\n")...)
	assert.Equal(t, "date,asset\n", readAll(t, input, ""))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("الكمية;12\n"))
	require.NoError(t, err)

	assert.Equal(t, "الكمية;12\n", readAll(t, encoded, ""))
}

func TestNewUTF8Reader_Windows1256Hint(t *testing.T) {
	encoded, err := charmap.Windows1256.NewEncoder().Bytes([]byte("الأصل;الكمية\nذهب;10\n"))
	require.NoError(t, err)

	assert.Equal(t, "الأصل;الكمية\nذهب;10\n", readAll(t, encoded, "Windows-1256"))
}

func TestNewUTF8Reader_ISO88596Hint(t *testing.T) {
	encoded, err := charmap.ISO8859_6.NewEncoder().Bytes([]byte("فضة;595\n"))
	require.NoError(t, err)

	assert.Equal(t, "فضة;595\n", readAll(t, encoded, "iso-8859-6"))
}

func TestNewUTF8Reader_Latin1Hint(t *testing.T) {
	latin1 := []byte{'C', 'a', 'f', 0xE9, ';', '1', '\n'}
	assert.Equal(t, "Café;1\n", readAll(t, latin1, "iso-8859-1"))
}

func TestLookup(t *testing.T) {
	assert.Equal(t, charmap.Windows1256, encoding.Lookup(" WINDOWS-1256 "))
	assert.Nil(t, encoding.Lookup("koi8-r"))
}
