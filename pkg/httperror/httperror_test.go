package httperror

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	he := New(http.StatusBadRequest, "missing %s", "file1")

	require.Equal(t, http.StatusBadRequest, he.StatusCode)
	require.Equal(t, "missing file1", he.Message)
}

func TestError(t *testing.T) {
	require.Equal(t, "413 Request Entity Too Large: too big", New(http.StatusRequestEntityTooLarge, "too big").Error())
}
