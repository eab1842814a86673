package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageEncoding(t *testing.T) {
	img := Image{Data: []byte("abc"), MIMEType: "image/png"}
	assert.Equal(t, "YWJj", img.Base64())
	assert.Equal(t, "data:image/png;base64,YWJj", img.DataURL())
	assert.Equal(t, "png", img.Format())

	bare := Image{Data: []byte("abc")}
	assert.Equal(t, "data:image/jpeg;base64,YWJj", bare.DataURL())
	assert.Equal(t, "jpeg", bare.Format())
}
