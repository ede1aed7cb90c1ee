package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPhoneNumber(t *testing.T) {
	assert.True(t, ValidPhoneNumber("6281234567890"))
	assert.True(t, ValidPhoneNumber("+62 812-3456-7890"))
	assert.False(t, ValidPhoneNumber(""))
	assert.False(t, ValidPhoneNumber("hello"))
	assert.False(t, ValidPhoneNumber("123456789012345678901"), "over max length")
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("admin_user-1"))
	assert.False(t, ValidSlug(""))
	assert.False(t, ValidSlug("has space"))
	assert.False(t, ValidSlug("semi;colon"))
}

func TestValidConfigKey(t *testing.T) {
	assert.True(t, ValidConfigKey("system_prompt"))
	assert.False(t, ValidConfigKey("drop table;"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "clean", SanitizeString("cle\x00an"))
	assert.Equal(t, "ok", SanitizeString("ok"))
}
