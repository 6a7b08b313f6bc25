package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_StripsBOM(t *testing.T) {
	got, err := Decode(strings.NewReader("\ufeffnom,tipus\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "nom,tipus\n", got)
}

func TestDecode_NormalizesNFC(t *testing.T) {
	// "S" + "i" + combining acute accent.
	got, err := Decode(strings.NewReader("Si\u0301"), "utf-8")
	require.NoError(t, err)
	assert.Equal(t, MunicipalYes, got)
}

func TestDecode_Windows1252(t *testing.T) {
	// 0xED is "í" in windows-1252.
	got, err := Decode(strings.NewReader("S\xed,Gr\xe0cia"), "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "Sí,Gràcia", got)
}

func TestDecode_UnknownCharset(t *testing.T) {
	_, err := Decode(strings.NewReader("x"), "klingon-8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

func TestReadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equipaments.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffa,b\r\n1,2\r\n"), 0o644))

	got, err := ReadSource(path, "")
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n1,2\r\n", got)
}

func TestReadSource_Missing(t *testing.T) {
	_, err := ReadSource(filepath.Join(t.TempDir(), "nope.csv"), "")
	require.Error(t, err)
}
