package matrikkel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "masseutsendelse/pkg/domain-errors"
)

func TestResolveCoordinateSystem(t *testing.T) {
	tests := []struct {
		epsg string
		want CoordinateSystemCode
	}{
		{epsg: "4326", want: 24},
		{epsg: "5972", want: 10},
		{epsg: "25832", want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.epsg, func(t *testing.T) {
			got, err := ResolveCoordinateSystem(tt.epsg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCoordinateSystemRejectsUnknown(t *testing.T) {
	for _, epsg := range []string{"", "9999", "25833", " 4326", "EPSG:4326"} {
		t.Run("epsg "+epsg, func(t *testing.T) {
			got, err := ResolveCoordinateSystem(epsg)
			require.Error(t, err)
			assert.Zero(t, got)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnsupportedCoordinateSystem))
		})
	}

	_, err := ResolveCoordinateSystem("")
	de, ok := dErrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "Koordinatsystem mangler", de.Title)
}
