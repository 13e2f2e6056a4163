package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Souvenir API", doc.Info.Title)

	for _, path := range []string{"/question", "/answer", "/reveal", "/status", "/modules/{id}/cancel", "/events"} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
	answer := doc.Paths.Find("/answer").Post
	require.NotNil(t, answer)
	assert.Equal(t, "postAnswer", answer.OperationID)
}
