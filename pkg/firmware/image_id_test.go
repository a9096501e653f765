package firmware

import (
	"crypto/sha512"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewImageIDFromImage(t *testing.T) {
	image := []byte("not really a firmware image")

	imgID := NewImageIDFromImage(image)
	require.False(t, imgID.IsZero())
	require.Equal(t, imgID, NewImageIDFromImage(image))

	// the first half is the plain SHA2-512 of the content
	sha2 := sha512.Sum512(image)
	require.Equal(t, sha2[:], imgID[:sha512.Size])

	require.NotEqual(t, imgID, NewImageIDFromImage(append(image, 0)))
}

func TestImageIDJSON(t *testing.T) {
	imgID := NewImageIDFromImage([]byte("content"))

	b, err := json.Marshal(imgID)
	require.NoError(t, err)

	var decoded ImageID
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, imgID, decoded)

	require.Error(t, json.Unmarshal([]byte(`"beef"`), &decoded))
}
