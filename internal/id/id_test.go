package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate(PrefixLesson)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	prefixes := []string{PrefixUser, PrefixLesson, PrefixComment, PrefixFavorite, PrefixReport}

	for _, prefix := range prefixes {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+21, "ID: %s", id)
			assert.True(t, Valid(prefix, id), "generated id should be valid: %s", id)
		})
	}
}

func TestValid(t *testing.T) {
	good := MustGenerate(PrefixLesson)

	tests := []struct {
		name   string
		prefix string
		input  string
		want   bool
	}{
		{"generated", PrefixLesson, good, true},
		{"wrong prefix", PrefixComment, good, false},
		{"empty", PrefixLesson, "", false},
		{"prefix only", PrefixLesson, "lsn-", false},
		{"too short", PrefixLesson, "lsn-abc", false},
		{"too long", PrefixLesson, good + "x", false},
		{"bad characters", PrefixLesson, "lsn-" + strings.Repeat("$", 21), false},
		{"object id shape", PrefixLesson, "64b7f0c2e4b0a1a2b3c4d5e6", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.prefix, tt.input))
		})
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate("test")

	assert.True(t, strings.HasPrefix(id, "test-"))
	assert.Equal(t, len("test")+1+21, len(id))
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate(PrefixLesson)
	}
}
