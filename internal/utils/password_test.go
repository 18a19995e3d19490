package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/todo-api/internal/utils"
)

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := utils.HashPassword("s3cret", 4)
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, utils.VerifyPassword(hash, "s3cret"))
	assert.False(t, utils.VerifyPassword(hash, "wrong"))
}

func TestVerifyPasswordAgainstEmptyHash(t *testing.T) {
	// Accounts created via external auth have no password hash; nothing may
	// ever verify against them.
	assert.False(t, utils.VerifyPassword("", ""))
	assert.False(t, utils.VerifyPassword("", "anything"))
}
