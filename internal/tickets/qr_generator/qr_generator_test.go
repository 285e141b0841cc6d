package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyURL(t *testing.T) {
	g := NewQRGenerator("https://dreamstate.example/")
	assert.Equal(t, "https://dreamstate.example/verify/abc_-123", g.VerifyURL("abc_-123"))
}

func TestPNGDecodes(t *testing.T) {
	g := NewQRGenerator("https://dreamstate.example")
	data, err := g.PNG("token")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}
