package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkValidate(t *testing.T) {
	link := &Link{
		UserID:    1,
		Slug:      "abc1234",
		TargetURL: "https://example.com/some/path",
	}
	assert.NoError(t, link.Validate())

	link.TargetURL = "not a url"
	assert.Error(t, link.Validate())

	link.TargetURL = "https://example.com/" + strings.Repeat("x", 2048)
	assert.Error(t, link.Validate())
}

func TestLinkBeforeCreateAssignsUUID(t *testing.T) {
	link := &Link{}
	require.NoError(t, link.BeforeCreate(nil))
	assert.Len(t, link.UUID, 36)

	existing := &Link{UUID: "11111111-2222-3333-4444-555555555555"}
	require.NoError(t, existing.BeforeCreate(nil))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", existing.UUID)
}
