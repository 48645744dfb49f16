package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Seed Password", "password123", false},
		{"Exactly Min Length", "abcdef", false},
		{"Too Short", "abc", true},
		{"Exactly Max Bytes", strings.Repeat("a", 72), false},
		{"Too Many Bytes", strings.Repeat("a", 73), true},
		{"Multibyte Counts Runes For Minimum", "ÅÅÅÅÅÅ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Dotted", "first.last", false},
		{"Too Short", "tu", true},
		{"Too Long", strings.Repeat("u", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Spaces", "user name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail("alice@example"))
	assert.Error(t, ValidateEmail("not an email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"))
}

func TestValidateQuestion(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateQuestion("How do goroutines work?", "Details"))
	assert.Error(t, ValidateQuestion("  ", "Details"))
	assert.Error(t, ValidateQuestion("Title", ""))
	assert.Error(t, ValidateQuestion(strings.Repeat("t", 301), "Details"))
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()
	tags, err := NormalizeTags(" Go, concurrency,,go ,Channels ")
	require.NoError(t, err)
	assert.Equal(t, "go,concurrency,channels", tags)

	tags, err = NormalizeTags("")
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = NormalizeTags("a,b,c,d,e,f,g,h,i,j,k")
	assert.Error(t, err)
}

func TestSplitInterests(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"python", "web development"}, SplitInterests("python, web development,"))
	assert.Empty(t, SplitInterests(" , "))
}
