package document

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		attr, err := ParseAttributes([]byte(`{"name":"demo","count":2}`))
		require.NoError(t, err)
		assert.Equal(t, Attributes{"name": "demo", "count": "2"}, attr)
	})

	t.Run("key value", func(t *testing.T) {
		attr, err := ParseAttributes([]byte("{name=demo cache=false}"))
		require.NoError(t, err)
		assert.Equal(t, Attributes{"name": "demo", "cache": "false"}, attr)
	})

	t.Run("json failure falls through", func(t *testing.T) {
		attr, err := ParseAttributes([]byte("{name=demo}"))
		require.NoError(t, err)
		assert.Equal(t, Attributes{"name": "demo"}, attr)
	})

	t.Run("malformed pairs skipped", func(t *testing.T) {
		attr, err := ParseAttributes([]byte("{name=demo =orphan bare}"))
		require.NoError(t, err)
		assert.Equal(t, Attributes{"name": "demo"}, attr)
	})
}

func TestWriteAttributes_Canonical(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAttributes(&buf, Attributes{"zeta": "1", "name": "demo", "alpha": "2"})
	require.NoError(t, err)

	// "name" leads, the rest is alphabetical.
	assert.Equal(t, "{name=demo alpha=2 zeta=1}", buf.String())
}

func TestExtractAttributesChunk(t *testing.T) {
	testCases := []struct {
		info     string
		expected string
	}{
		{"go {name=demo}", "{name=demo}"},
		{"{name=demo}", "{name=demo}"},
		{"go", ""},
		{"go {}", ""},
	}

	for _, tc := range testCases {
		chunk := extractAttributesChunk([]byte(tc.info))
		if tc.expected == "" {
			assert.Nil(t, chunk, "info %q", tc.info)
		} else {
			assert.Equal(t, tc.expected, string(chunk), "info %q", tc.info)
		}
	}
}
