package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "fields.yaml", `
chamber_of_commerce_kvk_nummer: KvK-nummer
citizen_service_number_bsn: BSN
vat_number: ""
`)
	v, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"chamber_of_commerce_kvk_nummer", "citizen_service_number_bsn", "vat_number"}, v.Keys())
	assert.True(t, v.Has("citizen_service_number_bsn"))
	assert.False(t, v.Has("projectplan"))
	assert.Equal(t, "KvK-nummer", v.Label("chamber_of_commerce_kvk_nummer"))
	assert.Equal(t, "vat_number", v.Label("vat_number"))
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "fields.json", `{"iban": "IBAN rekeningnummer", " ": "ignored"}`)
	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, "IBAN rekeningnummer", v.Label("iban"))
}

func TestLoad_MissingOrEmptyPathDegrades(t *testing.T) {
	v, err := Load("")
	require.NoError(t, err)
	assert.True(t, v.Empty())

	v, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.True(t, v.Empty())
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeFile(t, "fields.json", `{"iban": `))
	require.Error(t, err)

	_, err = Load(writeFile(t, "fields.yaml", "- just\n- a list\n"))
	require.Error(t, err)
}

func TestZeroValueIsEmpty(t *testing.T) {
	var v Vocabulary
	assert.True(t, v.Empty())
	assert.False(t, v.Has("x"))
	assert.Empty(t, v.Keys())
}
